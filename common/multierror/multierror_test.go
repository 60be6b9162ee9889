//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package multierror

import (
	"testing"

	"github.com/juju/errors"
)

func TestAppend(t *testing.T) {
	var err error
	if err = Append(err); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err = Append(err, nil, nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}

	err = Append(err, errors.Errorf("port busy"))
	if err == nil {
		t.Fatal(err)
	}
	if got, want := err.Error(), "port busy"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}

	err = Append(err, nil, errors.Errorf("close failed"))
	if got, want := err.Error(), `2 errors occurred:
  port busy
  close failed`; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if n := len(err.(*Error).Errors()); n != 2 {
		t.Errorf("want 2 errors, got %d", n)
	}

	old := errors.Errorf("sync failed")
	if err = Append(old, nil); err != old {
		t.Errorf("want the original error back, got %v", err)
	}
	err = Append(old, errors.Errorf("close failed"))
	if got, want := err.Error(), `2 errors occurred:
  sync failed
  close failed`; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

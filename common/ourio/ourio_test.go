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
package ourio

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestWriteFileIfDifferent(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "image.bin")

	for i, c := range []struct {
		data    string
		written bool
	}{
		{"\x02\x00\x33", true},
		{"\x02\x00\x33", false},
		{"\x02\x00\x34\xff", true},
		{"", true},
	} {
		written, err := WriteFileIfDifferent(fname, []byte(c.data), 0644)
		if err != nil {
			t.Fatalf("%d: %s", i, err)
		}
		if written != c.written {
			t.Errorf("%d: want written=%t, got %t", i, c.written, written)
		}
		got, _ := ioutil.ReadFile(fname)
		if string(got) != c.data {
			t.Errorf("%d: want %q, got %q", i, c.data, got)
		}
	}
	ff, _ := ioutil.ReadDir(dir)
	if len(ff) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(ff))
	}
}

func TestWriteFileIfDifferentNoDir(t *testing.T) {
	_, err := WriteFileIfDifferent(filepath.Join(t.TempDir(), "nope", "x.bin"), []byte{1}, 0644)
	if err == nil {
		t.Errorf("expected an error")
	}
}

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
package ourutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
)

func Reportf(f string, args ...interface{}) {
	Freportf(os.Stderr, f, args...)
}

func Freportf(w io.Writer, f string, args ...interface{}) {
	fmt.Fprintf(w, f+"\n", args...)
	glog.Infof(f, args...)
}

// Confirm asks a yes/no question on stderr and reads the answer from in.
func Confirm(in io.Reader, text string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", text)
	ans, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(ans)) {
	case "y", "yes":
		return true
	}
	return false
}

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
package main

import (
	"fmt"

	"github.com/lpcprog/lpcprog/cli/devutil"
	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/cli/ourutil"
)

func ports() error {
	pp := devutil.ListPorts(*flags.Details)
	if len(pp) == 0 {
		ourutil.Reportf("No serial ports found")
		return nil
	}
	for _, p := range pp {
		fmt.Println(p)
	}
	return nil
}

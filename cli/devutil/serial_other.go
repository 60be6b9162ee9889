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
//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package devutil

import (
	"sort"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

func systemPorts() []string {
	list, err := serial.GetPortsList()
	if err != nil {
		glog.Warningf("failed to enumerate serial ports: %s", err)
		return nil
	}
	sort.Strings(list)
	return list
}

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
package devutil

import (
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sys/windows/registry"
)

const serialCommKey = `HARDWARE\DEVICEMAP\SERIALCOMM\`

// systemPorts lists the COM ports registered by serial drivers, in
// COM number order.
func systemPorts() []string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, serialCommKey, registry.QUERY_VALUE)
	if err != nil {
		glog.V(1).Infof("no serial ports: %s", err)
		return nil
	}
	defer k.Close()
	names, err := k.ReadValueNames(0)
	if err != nil {
		glog.Warningf("failed to read %s: %s", serialCommKey, err)
		return nil
	}
	var res []string
	for _, n := range names {
		if port, _, err := k.GetStringValue(n); err == nil && port != "" {
			res = append(res, port)
		}
	}
	sort.Slice(res, func(i, j int) bool { return comLess(res[i], res[j]) })
	return res
}

func comNumber(port string) int {
	if !strings.HasPrefix(port, "COM") {
		return -1
	}
	cn, err := strconv.Atoi(port[3:])
	if err != nil {
		return -1
	}
	return cn
}

// comLess puts COM2 before COM10.
func comLess(a, b string) bool {
	na, nb := comNumber(a), comNumber(b)
	if na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

// onboardPort reports COM1 and COM2, which are the motherboard UARTs.
func onboardPort(name string) bool {
	n := comNumber(name)
	return n == 1 || n == 2
}

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

// Bridge drivers first, the catch-all last.
var darwinPortPatterns = []string{
	"/dev/cu.usbserial*",
	"/dev/cu.SLAB_USBtoUART*",
	"/dev/cu.wchusbserial*",
	"/dev/cu.usbmodem*",
	"/dev/cu.*",
}

func systemPorts() []string {
	return globPorts(darwinPortPatterns, "Bluetooth-", "-SPPDev", "-WirelessiAP")
}

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
package flags

import (
	flag "github.com/spf13/pflag"
)

var (
	Port = flag.String("port", "auto", "Serial port where the programmer is connected. "+
		"If set to 'auto', ports on the system will be enumerated and the first will be used.")
	BaudRate = flag.Uint("baud-rate", 4800, "Serial port speed")
	Adapter  = flag.String("adapter", "direct", "Programming adapter: 'direct' for a serial port with "+
		"DTR switching target power and RTS driving reset, 'bridge' for a programmer that handles both")
	InvertedControlLines = flag.Bool("inverted-control-lines", false, "DTR and RTS control lines use inverted polarity")
	NoActivate           = flag.Bool("no-activate", false, "Target is already in bootloader mode, do not power cycle it")

	Address = flag.Uint16("address", 0, "Flash address of the sector or page to operate on")
	Sec     = flag.Int("sec", -1, "Security byte number (0-7). Reads all of them if not set.")
	Force   = flag.Bool("force", false, "Do not ask for confirmation before changing configuration bytes")

	Output  = flag.StringP("output", "o", "", "Output file name")
	LineLen = flag.Int("line-len", 16, "Data bytes per Intel HEX record")
	Details = flag.Bool("details", false, "Show USB details of serial ports")
)

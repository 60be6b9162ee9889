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
package lpc9xx

import (
	"fmt"

	"github.com/juju/errors"
)

// Flag is one bit of a configuration register.
type Flag struct {
	Name string
	Desc string
	Mask uint8
}

// FlagState is a Flag as read back from the device.
type FlagState struct {
	Flag
	Set bool
}

var (
	UCFG1Flags = []Flag{
		{"WDTE", "Watchdog timer enable", 0x80},
		{"RPE", "Reset pin enable", 0x40},
		{"BOE", "Brownout detect enable", 0x20},
		{"WDSE", "Watchdog safety enable", 0x10},
	}
	STATBFlags = []Flag{
		{"DCCP", "Disable Clear Configuration Protection", 0x80},
		{"CWP", "Configuration Write Protect", 0x40},
		{"AWP", "Activate Write Protection", 0x20},
		{"BSB", "Boot Status", 0x01},
	}
	secFlags = []Flag{
		{"EDIS", "Erase Disable", 0x04},
		{"SPEDIS", "Sector Program Erase Disable", 0x02},
		{"MOVCDIS", "MOVC Disable", 0x01},
	}
)

const foscMask = 0x07

var oscillators = map[uint8]string{
	0x07: "External input on XTAL1",
	0x04: "Watchdog oscillator, 400 kHz (+20/-30% tolerance)",
	0x03: "Internal RC oscillator, 7.373 MHz +-2.5%",
	0x02: "Low frequency crystal, 20 kHz to 100 kHz",
	0x01: "Medium frequency crystal or resonator, 100 kHz to 4 MHz",
	0x00: "High frequency crystal or resonator, 4 MHz to 12 MHz",
}

func decode(flags []Flag, v uint8) []FlagState {
	res := make([]FlagState, 0, len(flags))
	for _, f := range flags {
		res = append(res, FlagState{Flag: f, Set: v&f.Mask != 0})
	}
	return res
}

func DecodeUCFG1(v uint8) []FlagState {
	return decode(UCFG1Flags, v)
}

// Oscillator describes the clock source selected by the FOSC bits of UCFG1.
func Oscillator(ucfg1 uint8) (string, error) {
	fosc := ucfg1 & foscMask
	if s, ok := oscillators[fosc]; ok {
		return s, nil
	}
	return "", errors.Errorf("reserved FOSC value %d", fosc)
}

func DecodeSTATB(v uint8) []FlagState {
	return decode(STATBFlags, v)
}

// DecodeSEC decodes security byte n. Flag names carry the sector number.
func DecodeSEC(n int, v uint8) []FlagState {
	res := decode(secFlags, v)
	for i := range res {
		res[i].Name = fmt.Sprintf("%s%d", res[i].Name, n)
		res[i].Desc = fmt.Sprintf("%s for sector %d", res[i].Desc, n)
	}
	return res
}

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
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/flasher"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/isp"
	"github.com/lpcprog/lpcprog/cli/ourutil"
)

var (
	setColor   = color.New(color.FgGreen, color.Bold)
	clearColor = color.New(color.Faint)
)

func subcommand(what string, choices ...string) (string, error) {
	args := flag.Args()
	if len(args) < 2 {
		return "", errors.Errorf("usage: %s %s %v", os.Args[0], what, choices)
	}
	for _, c := range choices {
		if args[1] == c {
			return c, nil
		}
	}
	return "", errors.Errorf("unknown %s target %q, must be one of %v", what, args[1], choices)
}

// parseValue accepts decimal, 0x hex and 0 octal values.
func parseValue(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, errors.Errorf("invalid %d-bit value %q", bits, s)
	}
	return v, nil
}

func printFlags(w io.Writer, ff []lpc9xx.FlagState) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range ff {
		c, v := clearColor, 0
		if f.Set {
			c, v = setColor, 1
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Sprint(f.Name), c.Sprint(v), f.Desc)
	}
	tw.Flush()
}

func printUCFG1(w io.Writer, v uint8) {
	fmt.Fprintf(w, "UCFG1: 0x%02x\n", v)
	printFlags(w, lpc9xx.DecodeUCFG1(v))
	osc, err := lpc9xx.Oscillator(v)
	if err != nil {
		color.New(color.FgRed).Fprintf(w, "  FOSC  %s\n", err)
		return
	}
	fmt.Fprintf(w, "  FOSC  %s\n", osc)
}

func printSTATB(w io.Writer, v uint8) {
	fmt.Fprintf(w, "STATB: 0x%02x\n", v)
	printFlags(w, lpc9xx.DecodeSTATB(v))
}

func printSEC(w io.Writer, n int, v uint8) {
	fmt.Fprintf(w, "SEC%d: 0x%02x\n", n, v)
	printFlags(w, lpc9xx.DecodeSEC(n, v))
}

// secRange returns the security registers selected by --sec, all of them
// if it is not set.
func secRange() (int, int, error) {
	n := *flags.Sec
	if n < 0 {
		return 0, isp.NumSecurityRegisters - 1, nil
	}
	if _, err := isp.SecurityRegister(n); err != nil {
		return 0, 0, errors.Trace(err)
	}
	return n, n, nil
}

func readCmd() error {
	what, err := subcommand("read", "ids", "version", "ucfg1", "bootv", "statb", "secx", "gcrc", "scrc")
	if err != nil {
		return errors.Trace(err)
	}
	return withSession(func(s *flasher.Session) error {
		c := s.Client
		w := os.Stdout
		switch what {
		case "ids":
			ids, err := c.ReadIDs()
			if err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(w, "Manufacturer ID: 0x%02x\nDevice ID: 0x%02x\nDerivative ID: 0x%02x\n",
				ids.Manufacturer, ids.Device, ids.Derivative)
		case "version":
			v, err := c.ReadVersion()
			if err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(w, "Bootloader version: %s\n", v)
		case "ucfg1":
			v, err := c.ReadRegister(isp.RegUCFG1)
			if err != nil {
				return errors.Trace(err)
			}
			printUCFG1(w, v)
		case "bootv":
			v, err := c.ReadRegister(isp.RegBOOTV)
			if err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(w, "BOOTV: 0x%02x (boot vector 0x%02x00)\n", v, v)
		case "statb":
			v, err := c.ReadRegister(isp.RegSTATB)
			if err != nil {
				return errors.Trace(err)
			}
			printSTATB(w, v)
		case "secx":
			from, to, err := secRange()
			if err != nil {
				return errors.Trace(err)
			}
			for n := from; n <= to; n++ {
				r, _ := isp.SecurityRegister(n)
				v, err := c.ReadRegister(r)
				if err != nil {
					return errors.Trace(err)
				}
				printSEC(w, n, v)
			}
		case "gcrc":
			v, err := c.ReadGlobalCRC()
			if err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(w, "Global CRC: 0x%08x\n", v)
		case "scrc":
			v, err := c.ReadSectorCRC(*flags.Address)
			if err != nil {
				return errors.Trace(err)
			}
			fmt.Fprintf(w, "Sector CRC (0x%04x): 0x%08x\n", *flags.Address, v)
		}
		return nil
	})
}

func confirmWrite(text string) bool {
	if *flags.Force {
		return true
	}
	return ourutil.Confirm(os.Stdin, text)
}

func writeCmd() error {
	what, err := subcommand("write", "ucfg1", "bootv", "statb", "secx", "brg")
	if err != nil {
		return errors.Trace(err)
	}
	args := flag.Args()
	if len(args) != 3 {
		return errors.Errorf("usage: %s write %s <value>", os.Args[0], what)
	}
	bits := 8
	if what == "brg" {
		bits = 16
	}
	v, err := parseValue(args[2], bits)
	if err != nil {
		return errors.Trace(err)
	}
	var reg isp.Register
	switch what {
	case "ucfg1":
		reg = isp.RegUCFG1
		printUCFG1(os.Stderr, uint8(v))
	case "bootv":
		reg = isp.RegBOOTV
	case "statb":
		reg = isp.RegSTATB
		printSTATB(os.Stderr, uint8(v))
	case "secx":
		if *flags.Sec < 0 {
			return errors.Errorf("--sec is required to write a security byte")
		}
		if reg, err = isp.SecurityRegister(*flags.Sec); err != nil {
			return errors.Trace(err)
		}
		printSEC(os.Stderr, *flags.Sec, uint8(v))
	}
	if what == "brg" {
		if !confirmWrite(fmt.Sprintf("Load baud rate generator with 0x%04x? The port will lose sync.", v)) {
			return errors.New("aborted")
		}
		return withSession(func(s *flasher.Session) error {
			if err := s.Client.LoadBaudRate(uint16(v)); err != nil {
				return errors.Trace(err)
			}
			ourutil.Reportf("Baud rate generator set to 0x%04x", v)
			return nil
		})
	}
	if !confirmWrite(fmt.Sprintf("Write 0x%02x to %s?", v, reg)) {
		return errors.New("aborted")
	}
	return withSession(func(s *flasher.Session) error {
		if err := s.Client.WriteRegister(reg, uint8(v)); err != nil {
			return errors.Trace(err)
		}
		rb, err := s.Client.ReadRegister(reg)
		if err != nil {
			return errors.Trace(err)
		}
		if rb != uint8(v) {
			return errors.Errorf("%s reads back as 0x%02x, expected 0x%02x", reg, rb, v)
		}
		ourutil.Reportf("%s = 0x%02x", reg, rb)
		return nil
	})
}

func eraseCmd() error {
	what, err := subcommand("erase", "sector", "page")
	if err != nil {
		return errors.Trace(err)
	}
	addr := *flags.Address
	return withSession(func(s *flasher.Session) error {
		if what == "sector" {
			err = s.Client.EraseSector(addr)
		} else {
			err = s.Client.ErasePage(addr)
		}
		if err != nil {
			return errors.Trace(err)
		}
		ourutil.Reportf("Erased %s at 0x%04x", what, addr)
		return nil
	})
}

func resetCmd() error {
	return withSession(func(s *flasher.Session) error {
		if err := s.Client.Reset(); err != nil {
			return errors.Trace(err)
		}
		ourutil.Reportf("Target reset")
		return nil
	})
}

func bridgeCmd() error {
	what, err := subcommand("bridge", "icp", "poweroff")
	if err != nil {
		return errors.Trace(err)
	}
	if *flags.Adapter != isp.AdapterBridge.String() {
		return errors.Trace(isp.ErrNotBridge)
	}
	args := flag.Args()
	var v uint64
	set := len(args) == 3
	if set {
		bits := 8
		if what == "poweroff" {
			bits = 16
		}
		if v, err = parseValue(args[2], bits); err != nil {
			return errors.Trace(err)
		}
	}
	return withSession(func(s *flasher.Session) error {
		c := s.Client
		switch {
		case what == "icp" && set:
			err = c.SetICPState(uint8(v))
		case what == "poweroff" && set:
			err = c.SetPowerOffTime(uint16(v))
		case what == "icp":
			var st uint8
			if st, err = c.ICPState(); err == nil {
				fmt.Printf("ICP state: %d\n", st)
			}
		default:
			var ms uint16
			if ms, err = c.PowerOffTime(); err == nil {
				fmt.Printf("Power off time: %d ms\n", ms)
			}
		}
		return errors.Trace(err)
	})
}

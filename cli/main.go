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
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/lpcprog/lpcprog/common/pflagenv"
	"github.com/lpcprog/lpcprog/version"
)

const (
	envPrefix = "LPCPROG_"
)

var (
	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

var (
	// put all commands here
	commands = []command{
		{"program", program, `Program a HEX file into flash`, nil, []string{"port", "baud-rate", "adapter", "inverted-control-lines", "no-activate"}, false},
		{"read", readCmd, `Read chip information: ids, version, ucfg1, bootv, statb, secx, gcrc, scrc`, nil, []string{"port", "sec", "address"}, false},
		{"write", writeCmd, `Write a configuration register: ucfg1, bootv, statb, secx, brg`, nil, []string{"port", "sec", "force"}, false},
		{"erase", eraseCmd, `Erase a flash sector or page`, []string{"address"}, []string{"port"}, false},
		{"reset", resetCmd, `Reset the target`, nil, []string{"port"}, false},
		{"bridge", bridgeCmd, `Query or set bridge programmer parameters: icp, poweroff`, nil, []string{"port"}, true},
		{"hex2bin", hex2bin, `Convert an Intel HEX file to a flat binary`, []string{"output"}, nil, false},
		{"bin2hex", bin2hex, `Convert a binary file to Intel HEX`, []string{"output"}, []string{"line-len"}, false},
		{"ports", ports, `List available serial ports`, nil, []string{"details"}, false},
		{"version", showVersion, `Show version`, nil, nil, false},
	}
)

type command struct {
	name     string
	handler  handler
	short    string
	required []string
	optional []string
	extended bool
}

type handler func() error

func run() error {
	for _, c := range commands {
		if c.name == flag.Arg(0) {
			// check required flags
			if err := checkFlags(c.required); err != nil {
				return errors.Trace(err)
			}
			// run the handler
			if err := c.handler(); err != nil {
				return errors.Trace(err)
			}
			return nil
		}
	}
	// not found
	usage()
	return nil
}

func showVersion() error {
	fmt.Printf(
		"%s\nVersion: %s\nBuild ID: %s\n",
		"LPC9xx in-system programming tool", version.GetVersion(), version.BuildId,
	)
	return nil
}

func main() {
	initFlags()
	flag.Parse()
	if err := pflagenv.Parse(envPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if *helpFull {
		unhideFlags()
		usage()
		return
	} else if *versionFlag {
		showVersion()
		return
	}

	if err := run(); err != nil {
		glog.Infof("Error: %s", errors.ErrorStack(err))
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: ")
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

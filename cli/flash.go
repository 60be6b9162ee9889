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
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/lpcprog/lpcprog/cli/devutil"
	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/flasher"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/isp"
	"github.com/lpcprog/lpcprog/cli/ourutil"
	"github.com/lpcprog/lpcprog/common/multierror"
)

var (
	lpcFlashOpts lpc9xx.FlashOpts
	noProgress   bool
)

// register advanced ISP flags
func init() {
	flag.IntVar(&lpcFlashOpts.SyncRetries, "lpc-sync-retries", 0,
		"Number of baud sync attempts. 0 - adapter default (4 for direct, 8 for bridge)")
	flag.DurationVar(&lpcFlashOpts.CommandTimeout, "lpc-command-timeout", isp.DefaultCommandTimeout,
		"Time to wait for a reply to a command")
	flag.DurationVar(&lpcFlashOpts.ProgramTimeout, "lpc-program-timeout", isp.DefaultProgramTimeout,
		"Time to wait for a program record to be acknowledged")
	flag.BoolVar(&noProgress, "lpc-no-progress", false, "Do not show the progress bar while programming")

	// add these flags to the hiddenFlags list so that they can be hidden and shown again with --helpfull
	flag.VisitAll(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "lpc-") {
			hiddenFlags = append(hiddenFlags, f.Name)
		}
	})
}

func getFlashOpts() (*lpc9xx.FlashOpts, error) {
	port, err := devutil.GetPort()
	if err != nil {
		return nil, errors.Trace(err)
	}
	opts := lpcFlashOpts
	opts.Port = port
	opts.BaudRate = *flags.BaudRate
	opts.Adapter = *flags.Adapter
	opts.InvertedControlLines = *flags.InvertedControlLines
	opts.NoActivate = *flags.NoActivate
	opts.OnState = func(s isp.State) {
		glog.V(2).Infof("bootloader entry: %s", s)
	}
	return &opts, nil
}

// withSession connects to the target, runs f and closes the session.
// Close errors are reported along with the error from f.
func withSession(f func(s *flasher.Session) error) (err error) {
	opts, err := getFlashOpts()
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Opening %s @ %d, %s adapter...", opts.Port, opts.BaudRate, opts.Adapter)
	s, err := flasher.Connect(opts)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		err = multierror.Append(err, errors.Trace(s.Close()))
	}()
	return errors.Trace(f(s))
}

func program() error {
	args := flag.Args()
	if len(args) != 2 {
		return errors.Errorf("usage: %s program <file.hex>", os.Args[0])
	}
	fname := args[1]
	return withSession(func(s *flasher.Session) error {
		ourutil.Reportf("Programming %s...", fname)
		var bar *progressbar.ProgressBar
		progress := func(done, total int, ack byte) {
			if noProgress {
				glog.V(1).Infof("%d/%d %c", done, total, ack)
				return
			}
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Writing"),
					progressbar.OptionShowBytes(true),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
				)
			}
			bar.Set(done)
		}
		res, err := flasher.Program(s.Client, fname, progress)
		if bar != nil && !bar.IsFinished() {
			// Leave the bar where it stopped and move to a new line.
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return errors.Trace(err)
		}
		if res.Records == 0 {
			ourutil.Reportf("Nothing to program")
			return nil
		}
		ourutil.Reportf("Wrote %d bytes in %d records in %.2f seconds (%.2f bytes/s)",
			res.Bytes, res.Records, res.Elapsed.Seconds(), bytesPerSecond(res.Bytes, res.Elapsed))
		return nil
	})
}

func bytesPerSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

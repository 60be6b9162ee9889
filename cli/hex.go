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
	"io/ioutil"
	"os"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/cli/ourutil"
	"github.com/lpcprog/lpcprog/common/ihex"
	"github.com/lpcprog/lpcprog/common/ourio"
)

func convertArgs(what string) (string, error) {
	args := flag.Args()
	if len(args) != 2 {
		return "", errors.Errorf("usage: %s %s <input> --output <output>", os.Args[0], what)
	}
	return args[1], nil
}

func hex2bin() error {
	in, err := convertArgs("hex2bin")
	if err != nil {
		return errors.Trace(err)
	}
	n, err := hexToBin(in, *flags.Output)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Wrote %d bytes to %s", n, *flags.Output)
	return nil
}

func bin2hex() error {
	in, err := convertArgs("bin2hex")
	if err != nil {
		return errors.Trace(err)
	}
	n, err := binToHex(in, *flags.Output, *flags.LineLen)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Wrote %d bytes to %s", n, *flags.Output)
	return nil
}

// hexToBin writes the image from address 0 to its highest written byte.
// Gaps are filled with erased bytes.
func hexToBin(in, out string) (int, error) {
	im, err := ihex.DecodeFile(in, ihex.DefaultCapacity)
	if err != nil {
		return 0, errors.Annotatef(err, "failed to load %s", in)
	}
	data := im.Data[:im.Len()]
	written, err := ourio.WriteFileIfDifferent(out, data, 0644)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if !written {
		glog.V(1).Infof("%s is up to date", out)
	}
	return len(data), nil
}

func binToHex(in, out string, lineLen int) (int, error) {
	data, err := ioutil.ReadFile(in)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if len(data) > ihex.DefaultCapacity {
		return 0, errors.Errorf("%s is too big (%d bytes, max %d)", in, len(data), ihex.DefaultCapacity)
	}
	if err := ihex.EncodeFile(out, data, len(data), lineLen); err != nil {
		return 0, errors.Trace(err)
	}
	return len(data), nil
}

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
package pflagenv

import (
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/lpcprog/lpcprog/common/multierror"
)

// ParseFlagSet fills flags not given on the command line from environment
// variables named envPrefix + upper-cased flag name, dashes replaced with
// underscores: --baud-rate is LPCPROG_BAUD_RATE for the "LPCPROG_" prefix.
// Empty variables are ignored. Values that do not parse are reported
// together, the rest are still applied.
//
// It should be called after Parse is called for the given FlagSet.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string) error {
	// Changed tells a flag given on the command line from one left at its default.
	var nonset []*pflag.Flag
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			nonset = append(nonset, f)
		}
	})
	sort.Slice(nonset, func(i, j int) bool { return nonset[i].Name < nonset[j].Name })

	var errs error
	for _, f := range nonset {
		envName := EnvName(f.Name, envPrefix)
		envVar := os.Getenv(envName)
		if envVar == "" {
			continue
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVar); err != nil {
			// Some pflag values store the zero value on a failed parse.
			f.Value.Set(prev)
			errs = multierror.Append(errs, errors.Annotatef(err, "%s", envName))
			continue
		}
		glog.V(1).Infof("--%s=%q from %s", f.Name, envVar, envName)
	}
	return errs
}

// The same as ParseFlagSet, but operates on a default FlagSet: pflag.CommandLine
func Parse(envPrefix string) error {
	return ParseFlagSet(pflag.CommandLine, envPrefix)
}

// EnvName returns the environment variable consulted for a flag.
func EnvName(flagName, envPrefix string) string {
	return envPrefix + strings.Replace(strings.ToUpper(flagName), "-", "_", -1)
}

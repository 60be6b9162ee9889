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
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/cli/ourutil"
)

var defaultPort string

// GetPort returns --port, or with "auto" the best ranked port, preferring
// known USB-serial bridges.
func GetPort() (string, error) {
	if *flags.Port != "auto" {
		return *flags.Port, nil
	}
	if defaultPort == "" {
		ranked := rankPorts(ListPorts(true))
		if len(ranked) == 0 {
			return "", errors.Errorf("--port not specified and none were found")
		}
		for _, p := range ranked {
			glog.V(1).Infof("candidate %s (score %d)", p, p.score())
		}
		defaultPort = ranked[0].Name
		ourutil.Reportf("Using port %s", ranked[0])
	}
	return defaultPort, nil
}

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
	"time"

	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/isp"
)

const (
	DefaultBaudRate = 4800
	MaxBaudRate     = 115200
)

type FlashOpts struct {
	Port                 string
	BaudRate             uint
	Adapter              string
	InvertedControlLines bool
	// Target is already in bootloader mode, skip power and reset sequencing.
	NoActivate     bool
	SyncRetries    int
	CommandTimeout time.Duration
	ProgramTimeout time.Duration
	OnState        func(isp.State)
}

// ISPConfig validates the options and turns them into the protocol engine
// configuration.
func (o *FlashOpts) ISPConfig() (isp.Config, error) {
	var cfg isp.Config
	a, err := isp.ParseAdapter(o.Adapter)
	if err != nil {
		return cfg, errors.Trace(err)
	}
	if o.BaudRate == 0 || o.BaudRate > MaxBaudRate {
		return cfg, errors.Errorf("invalid baud rate (%d)", o.BaudRate)
	}
	if o.SyncRetries < 0 {
		return cfg, errors.Errorf("invalid number of sync retries (%d)", o.SyncRetries)
	}
	cfg.Adapter = a
	cfg.InvertedControlLines = o.InvertedControlLines
	cfg.SyncRetries = o.SyncRetries
	cfg.CommandTimeout = o.CommandTimeout
	cfg.ProgramTimeout = o.ProgramTimeout
	cfg.OnState = o.OnState
	return cfg, nil
}

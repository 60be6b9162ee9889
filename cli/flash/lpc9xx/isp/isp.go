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
package isp

import (
	"io"
	"time"

	"github.com/juju/errors"
)

var (
	ErrReplyTimeout   = errors.New("no reply from the bootloader")
	ErrMalformedReply = errors.New("malformed reply")
	ErrBaudSyncFailed = errors.New("failed to enter bootloader mode")
	ErrNotBridge      = errors.New("command requires the bridge adapter")
)

// Transport is the subset of a serial port the protocol needs.
// Read must not block: it returns whatever is pending, possibly nothing.
type Transport interface {
	io.ReadWriter
	Pending() (int, error)
	SetDTR(level bool) error
	SetRTS(level bool) error
}

type Adapter int

const (
	// AdapterDirect is a plain serial adapter with DTR switching target
	// power and RTS driving the reset pin.
	AdapterDirect Adapter = iota
	// AdapterBridge is a programmer that manages power and reset itself.
	AdapterBridge
)

func (a Adapter) String() string {
	switch a {
	case AdapterDirect:
		return "direct"
	case AdapterBridge:
		return "bridge"
	}
	return "???"
}

func ParseAdapter(s string) (Adapter, error) {
	switch s {
	case "direct", "":
		return AdapterDirect, nil
	case "bridge":
		return AdapterBridge, nil
	}
	return AdapterDirect, errors.Errorf("unknown adapter %q", s)
}

// NeedsActivation reports whether the power/reset sequence must be driven
// from the host to start the bootloader.
func (a Adapter) NeedsActivation() bool {
	return a == AdapterDirect
}

const (
	DefaultCommandTimeout = 1 * time.Second
	DefaultProgramTimeout = 2 * time.Second
	DefaultSettleDelay    = 250 * time.Millisecond

	defaultSyncRetriesDirect = 4
	defaultSyncRetriesBridge = 8
)

type Config struct {
	Adapter              Adapter
	InvertedControlLines bool
	// Number of baud sync attempts, 0 means the adapter default.
	SyncRetries    int
	CommandTimeout time.Duration
	ProgramTimeout time.Duration
	// Delay after every write, the bootloader needs it to process a record.
	SettleDelay time.Duration
	// Sleep implements all waits. Defaults to Delay.
	Sleep func(time.Duration)
	// OnState, if set, is called on every bootloader entry state change.
	OnState func(State)
}

func (cfg Config) withDefaults() Config {
	if cfg.SyncRetries <= 0 {
		cfg.SyncRetries = defaultSyncRetriesDirect
		if cfg.Adapter == AdapterBridge {
			cfg.SyncRetries = defaultSyncRetriesBridge
		}
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.ProgramTimeout <= 0 {
		cfg.ProgramTimeout = DefaultProgramTimeout
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Delay
	}
	return cfg
}

// Delay waits for d. Short delays spin on the monotonic clock since
// the scheduler cannot be trusted with microseconds.
func Delay(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}

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
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// State is a step of bootloader entry.
type State int

const (
	StatePoweredOff State = iota
	StatePoweringUp
	StateResetPulse1
	StateResetPulse2
	StateResetPulse3
	StateSettled
	StateBaudSyncing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePoweredOff:
		return "powered off"
	case StatePoweringUp:
		return "powering up"
	case StateResetPulse1, StateResetPulse2, StateResetPulse3:
		return fmt.Sprintf("reset pulse %d", int(s-StateResetPulse1)+1)
	case StateSettled:
		return "settled"
	case StateBaudSyncing:
		return "baud syncing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state %d", int(s))
}

const (
	SyncChar    = 'U'
	SyncTimeout = 250 * time.Millisecond

	powerOffHold   = 1 * time.Second
	powerOnHold    = 100 * time.Millisecond
	pulseGap       = 16 * time.Microsecond
	pulseWidth     = 48 * time.Microsecond
	numResetPulses = 3
	settleHold     = 100 * time.Microsecond
)

// lines drives target power (DTR) and reset (RTS). With the usual wiring
// a high line cuts power or holds the part in reset.
type lines struct {
	t        Transport
	inverted bool
}

func (l lines) power(on bool) error {
	return errors.Annotatef(l.t.SetDTR(!on != l.inverted), "power %t", on)
}

func (l lines) reset(asserted bool) error {
	return errors.Annotatef(l.t.SetRTS(asserted != l.inverted), "reset %t", asserted)
}

// EnterBootloader power cycles the target with the reset pulse train that
// starts the bootloader, if the adapter needs it, then synchronizes the
// baud rate. Returns the number of sync attempts made.
func EnterBootloader(t Transport, cfg Config) (int, error) {
	cfg = cfg.withDefaults()
	state := func(s State) {
		glog.V(1).Infof("bootloader entry: %s", s)
		if cfg.OnState != nil {
			cfg.OnState(s)
		}
	}
	fail := func(err error) (int, error) {
		state(StateFailed)
		return 0, err
	}
	if cfg.Adapter.NeedsActivation() {
		l := lines{t: t, inverted: cfg.InvertedControlLines}
		state(StatePoweredOff)
		if err := l.power(false); err != nil {
			return fail(errors.Trace(err))
		}
		if err := l.reset(true); err != nil {
			return fail(errors.Trace(err))
		}
		cfg.Sleep(powerOffHold)
		state(StatePoweringUp)
		if err := l.power(true); err != nil {
			return fail(errors.Trace(err))
		}
		cfg.Sleep(powerOnHold)
		if err := l.reset(false); err != nil {
			return fail(errors.Trace(err))
		}
		for i := 0; i < numResetPulses; i++ {
			state(StateResetPulse1 + State(i))
			cfg.Sleep(pulseGap)
			if err := l.reset(true); err != nil {
				return fail(errors.Trace(err))
			}
			cfg.Sleep(pulseWidth)
			if err := l.reset(false); err != nil {
				return fail(errors.Trace(err))
			}
		}
		state(StateSettled)
		cfg.Sleep(settleHold)
	}
	state(StateBaudSyncing)
	attempts, err := SyncBaud(t, cfg)
	if err != nil {
		state(StateFailed)
		return attempts, errors.Trace(err)
	}
	state(StateReady)
	return attempts, nil
}

// SyncBaud sends the sync character until the bootloader echoes it back,
// at most cfg.SyncRetries times. Like any other write the character is
// followed by the settle delay, so the echo has the settle delay plus
// SyncTimeout to arrive. Returns the number of attempts made.
func SyncBaud(t Transport, cfg Config) (int, error) {
	cfg = cfg.withDefaults()
	buf := make([]byte, 1)
	for attempt := 1; attempt <= cfg.SyncRetries; attempt++ {
		if err := WritePacket(t, []byte{SyncChar}, cfg.SettleDelay, cfg.Sleep); err != nil {
			return attempt, errors.Trace(err)
		}
		n, err := ReadPacket(t, buf, SyncTimeout, ByteClassifier, cfg.Sleep)
		if err != nil {
			return attempt, errors.Trace(err)
		}
		if n == 1 && buf[0] == SyncChar {
			if err := drain(t); err != nil {
				return attempt, errors.Trace(err)
			}
			glog.V(1).Infof("baud sync after %d attempt(s)", attempt)
			return attempt, nil
		}
		if n == 0 {
			glog.V(1).Infof("sync attempt %d: no echo", attempt)
		} else {
			glog.V(1).Infof("sync attempt %d: got 0x%02x", attempt, buf[0])
		}
	}
	return cfg.SyncRetries, errors.Annotatef(ErrBaudSyncFailed, "no echo after %d attempts", cfg.SyncRetries)
}

// ReleaseLines leaves the target powered and out of reset.
func ReleaseLines(t Transport, cfg Config) error {
	l := lines{t: t, inverted: cfg.InvertedControlLines}
	if err := l.power(true); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(l.reset(false))
}

func drain(t Transport) error {
	buf := make([]byte, 64)
	for {
		n, err := t.Pending()
		if err != nil {
			return errors.Trace(err)
		}
		if n == 0 {
			return nil
		}
		if n > len(buf) {
			n = len(buf)
		}
		r, err := t.Read(buf[:n])
		if err != nil {
			return errors.Trace(err)
		}
		if r == 0 {
			return nil
		}
		glog.V(3).Infof("drained %q", buf[:r])
	}
}

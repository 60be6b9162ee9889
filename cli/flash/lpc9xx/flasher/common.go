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
package flasher

import (
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx"
	"github.com/lpcprog/lpcprog/cli/flash/lpc9xx/isp"
	"github.com/lpcprog/lpcprog/common/multierror"
	"github.com/lpcprog/lpcprog/common/serialport"
)

// Port is a transport the session owns and closes.
type Port interface {
	isp.Transport
	Close() error
}

// Session is an open port with the target in bootloader mode.
type Session struct {
	Port   Port
	Client *isp.Client

	cfg    isp.Config
	closed bool
}

// Connect opens the port and puts the target into bootloader mode.
func Connect(opts *lpc9xx.FlashOpts) (*Session, error) {
	cfg, err := opts.ISPConfig()
	if err != nil {
		return nil, errors.Trace(err)
	}
	port, err := serialport.Open(opts.Port, &serialport.Options{
		BaudRate:         opts.BaudRate,
		InitialLineLevel: cfg.InvertedControlLines,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	s, err := NewSession(port, cfg, opts.NoActivate)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", opts.Port)
	}
	return s, nil
}

// NewSession takes ownership of port and runs bootloader entry, unless
// the target is known to be in bootloader mode already. The port is
// closed if entry fails.
func NewSession(port Port, cfg isp.Config, noActivate bool) (*Session, error) {
	s := &Session{Port: port, Client: isp.NewClient(port, cfg), cfg: cfg}
	if noActivate {
		glog.V(1).Infof("skipping bootloader entry")
		return s, nil
	}
	attempts, err := isp.EnterBootloader(port, cfg)
	if err != nil {
		return nil, multierror.Append(errors.Trace(err), s.Close())
	}
	glog.V(1).Infof("bootloader is ready (%d sync attempts)", attempts)
	return s, nil
}

// Close releases the control lines so the target runs, then closes the
// port. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.cfg.Adapter.NeedsActivation() {
		err = multierror.Append(err, errors.Annotatef(isp.ReleaseLines(s.Port, s.cfg), "failed to release control lines"))
	}
	return multierror.Append(err, errors.Trace(s.Port.Close()))
}

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

	"github.com/lpcprog/lpcprog/common/ihex"
)

type delivery struct {
	at   time.Duration
	data []byte
}

// fakeTransport is a simulated port with its own clock. Incoming data is
// scheduled and becomes pending once the clock passes its time; the clock
// only moves when sleep is called.
type fakeTransport struct {
	now      time.Duration
	sleeps   []time.Duration
	schedule []delivery
	rx       []byte
	tx       []byte
	writes   int
	// respond, if set, is called with each write and may return the reply
	// that becomes pending immediately.
	respond  func(f *fakeTransport, req []byte) []byte
	maxWrite int
	stall    bool
	writeErr error
	lines    []string
}

func (f *fakeTransport) sleep(d time.Duration) {
	f.sleeps = append(f.sleeps, d)
	f.now += d
}

func (f *fakeTransport) deliverAt(at time.Duration, data string) {
	f.schedule = append(f.schedule, delivery{at: at, data: []byte(data)})
}

func (f *fakeTransport) deliver() {
	var rest []delivery
	for _, d := range f.schedule {
		if d.at <= f.now {
			f.rx = append(f.rx, d.data...)
		} else {
			rest = append(rest, d)
		}
	}
	f.schedule = rest
}

func (f *fakeTransport) Pending() (int, error) {
	f.deliver()
	return len(f.rx), nil
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	f.deliver()
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.stall {
		return 0, nil
	}
	n := len(p)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	f.tx = append(f.tx, p[:n]...)
	f.writes++
	if f.respond != nil {
		if r := f.respond(f, p[:n]); r != nil {
			f.deliverAt(f.now, string(r))
		}
	}
	return n, nil
}

func (f *fakeTransport) SetDTR(level bool) error {
	f.lines = append(f.lines, fmt.Sprintf("%s DTR=%t", f.now, level))
	return nil
}

func (f *fakeTransport) SetRTS(level bool) error {
	f.lines = append(f.lines, fmt.Sprintf("%s RTS=%t", f.now, level))
	return nil
}

func (f *fakeTransport) config(a Adapter) Config {
	return Config{Adapter: a, Sleep: f.sleep}
}

// echoReply makes a responder that echoes each request followed by reply.
func echoReply(reply string) func(*fakeTransport, []byte) []byte {
	return func(_ *fakeTransport, req []byte) []byte {
		return append(append([]byte(nil), req...), reply...)
	}
}

// registerFile answers misc read requests from regs.
func registerFile(regs map[Register]uint8) func(*fakeTransport, []byte) []byte {
	return func(_ *fakeTransport, req []byte) []byte {
		rec, err := ihex.ParseRecord(string(req))
		if err != nil || len(rec.Data) != 1 {
			return nil
		}
		v, ok := regs[Register(rec.Data[0])]
		if !ok {
			return nil
		}
		return []byte(fmt.Sprintf("%s%02X.\r\n", req, v))
	}
}

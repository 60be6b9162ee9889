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
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/juju/errors"
)

func TestRecordClassifier(t *testing.T) {
	for i, c := range []struct {
		in   string
		want PacketStatus
	}{
		{"", PacketIncomplete},
		{":\r\n", PacketIncomplete},
		{":0\r\n", PacketComplete},
		{":0100000310ec10.\r\n", PacketComplete},
		{"x00\r\n", PacketIncomplete},
		{":00\r", PacketIncomplete},
		{":00\n\r", PacketIncomplete},
		{":0100000310ec", PacketIncomplete},
	} {
		if got := RecordClassifier([]byte(c.in)); got != c.want {
			t.Errorf("%d: %q: want %d, got %d", i, c.in, c.want, got)
		}
	}
	if ByteClassifier([]byte(":0\r\n")) != PacketIncomplete {
		t.Errorf("byte classifier completed a packet")
	}
}

func TestReadPacketTimeout(t *testing.T) {
	for i, c := range []struct {
		timeout time.Duration
		ticks   int
	}{
		{time.Second, 100},
		{250 * time.Millisecond, 25},
		{25 * time.Millisecond, 3},
		{0, 0},
	} {
		f := &fakeTransport{}
		buf := make([]byte, 16)
		n, err := ReadPacket(f, buf, c.timeout, RecordClassifier, f.sleep)
		if err != nil || n != 0 {
			t.Fatalf("%d: want 0, nil; got %d, %v", i, n, err)
		}
		if len(f.sleeps) != c.ticks {
			t.Errorf("%d: want %d ticks, got %d", i, c.ticks, len(f.sleeps))
		}
		for _, d := range f.sleeps {
			if d != pollInterval {
				t.Errorf("%d: unexpected sleep %s", i, d)
			}
		}
	}
}

func TestReadPacketComplete(t *testing.T) {
	f := &fakeTransport{}
	f.deliverAt(30*time.Millisecond, ":0")
	f.deliverAt(50*time.Millisecond, "1\r\n")
	f.deliverAt(60*time.Millisecond, "garbage")
	buf := make([]byte, 16)
	n, err := ReadPacket(f, buf, time.Second, RecordClassifier, f.sleep)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if got := string(buf[:n]); got != ":01\r\n" {
		t.Errorf("want %q, got %q", ":01\r\n", got)
	}
	if f.now != 50*time.Millisecond {
		t.Errorf("returned at %s", f.now)
	}
}

func TestReadPacketSharesBudget(t *testing.T) {
	f := &fakeTransport{}
	f.deliverAt(20*time.Millisecond, ":0")
	buf := make([]byte, 16)
	n, err := ReadPacket(f, buf, 50*time.Millisecond, RecordClassifier, f.sleep)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if n != 2 {
		t.Errorf("want 2 bytes, got %d", n)
	}
	// Waiting for the first byte and collecting the rest come out of
	// the same 5 ticks.
	if f.now != 50*time.Millisecond {
		t.Errorf("want 50ms spent, got %s", f.now)
	}
}

func TestReadPacketReadsAfterLastTick(t *testing.T) {
	f := &fakeTransport{}
	f.deliverAt(10*time.Millisecond, "U")
	buf := make([]byte, 1)
	n, err := ReadPacket(f, buf, 10*time.Millisecond, ByteClassifier, f.sleep)
	if err != nil || n != 1 || buf[0] != 'U' {
		t.Fatalf("want 1 byte, got %d %q %v", n, buf[:n], err)
	}
}

func TestReadPacketBufferFull(t *testing.T) {
	f := &fakeTransport{}
	f.deliverAt(0, "abcdefgh")
	buf := make([]byte, 4)
	n, err := ReadPacket(f, buf, time.Second, RecordClassifier, f.sleep)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if string(buf[:n]) != "abcd" {
		t.Errorf("got %q", buf[:n])
	}
	if len(f.sleeps) != 0 {
		t.Errorf("slept %d times", len(f.sleeps))
	}
	if len(f.rx) != 4 {
		t.Errorf("want 4 bytes left pending, got %d", len(f.rx))
	}
}

func TestWritePacket(t *testing.T) {
	f := &fakeTransport{maxWrite: 3}
	msg := []byte(":0100000310ec")
	if err := WritePacket(f, msg, DefaultSettleDelay, f.sleep); err != nil {
		t.Fatalf("%s", err)
	}
	if diff := cmp.Diff(string(msg), string(f.tx)); diff != "" {
		t.Errorf("tx mismatch (-want +got):\n%s", diff)
	}
	if f.writes != 5 {
		t.Errorf("want 5 writes, got %d", f.writes)
	}
	if diff := cmp.Diff([]time.Duration{DefaultSettleDelay}, f.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePacketErrors(t *testing.T) {
	f := &fakeTransport{stall: true}
	if err := WritePacket(f, []byte("U"), 0, f.sleep); err == nil || !strings.Contains(err.Error(), "stalled") {
		t.Errorf("want stall error, got %v", err)
	}
	ioErr := errors.New("port gone")
	f = &fakeTransport{writeErr: ioErr}
	err := WritePacket(f, []byte("U"), 0, f.sleep)
	if errors.Cause(err) != ioErr {
		t.Errorf("want %v, got %v", ioErr, err)
	}
	if len(f.sleeps) != 0 {
		t.Errorf("settled after a failed write")
	}
}

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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/common/ihex"
)

func TestReadRegister(t *testing.T) {
	f := &fakeTransport{respond: echoReply("5A.\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	v, err := c.ReadRegister(RegSTATB)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if v != 0x5a {
		t.Errorf("want 0x5a, got %#x", v)
	}
	if want := ihex.EncodeRecord(byte(CmdMiscRead), []byte{0x03}, 0); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
}

func TestReadIDs(t *testing.T) {
	f := &fakeTransport{respond: registerFile(map[Register]uint8{
		RegMANID: 0x15,
		RegDEVID: 0xdd,
		RegDERID: 0x0a,
	})}
	c := NewClient(f, f.config(AdapterDirect))
	ids, err := c.ReadIDs()
	if err != nil {
		t.Fatalf("%s", err)
	}
	if diff := cmp.Diff(&IDs{Manufacturer: 0x15, Device: 0xdd, Derivative: 0x0a}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandFailures(t *testing.T) {
	for i, c := range []struct {
		respond func(*fakeTransport, []byte) []byte
		cause   error
	}{
		{respond: nil, cause: ErrReplyTimeout},
		{respond: echoReply("X\r\n"), cause: ErrMalformedReply},
		{respond: echoReply("ZZ.\r\n"), cause: ErrMalformedReply},
		{respond: func(*fakeTransport, []byte) []byte { return []byte(":0100000302fa5A.\r\n") }, cause: ErrMalformedReply},
	} {
		f := &fakeTransport{respond: c.respond}
		cl := NewClient(f, f.config(AdapterDirect))
		v, err := cl.ReadRegister(RegUCFG1)
		if errors.Cause(err) != c.cause {
			t.Errorf("%d: want %v, got %v", i, c.cause, err)
		}
		if v != BadReplyByte {
			t.Errorf("%d: want sentinel, got %#x", i, v)
		}
		crc, err := cl.ReadGlobalCRC()
		if errors.Cause(err) != c.cause {
			t.Errorf("%d: want %v, got %v", i, c.cause, err)
		}
		if crc != BadReplyLong {
			t.Errorf("%d: want sentinel, got %#x", i, crc)
		}
	}
}

func TestCommandTimeoutBudget(t *testing.T) {
	f := &fakeTransport{}
	c := NewClient(f, f.config(AdapterDirect))
	if _, err := c.ReadGlobalCRC(); errors.Cause(err) != ErrReplyTimeout {
		t.Fatalf("want timeout, got %v", err)
	}
	if want := DefaultSettleDelay + DefaultCommandTimeout; f.now != want {
		t.Errorf("want %s spent, got %s", want, f.now)
	}
}

func TestWriteRegister(t *testing.T) {
	f := &fakeTransport{respond: echoReply(".\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	if err := c.WriteRegister(RegSEC0+2, 0x06); err != nil {
		t.Fatalf("%s", err)
	}
	if want := ihex.EncodeRecord(byte(CmdMiscWrite), []byte{0x0a, 0x06}, 0); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
	f.tx = nil
	if err := c.WriteRegister(RegMANID, 0); err == nil {
		t.Errorf("wrote a read-only register")
	}
	if len(f.tx) != 0 {
		t.Errorf("sent %q for a read-only register", f.tx)
	}
}

func TestSecurityRegister(t *testing.T) {
	for n := 0; n < NumSecurityRegisters; n++ {
		r, err := SecurityRegister(n)
		if err != nil {
			t.Fatalf("%d: %s", n, err)
		}
		if r != Register(0x08+n) || !r.Writable() {
			t.Errorf("%d: got %s (%#x)", n, r, uint8(r))
		}
	}
	if _, err := SecurityRegister(8); err == nil {
		t.Errorf("accepted SEC8")
	}
	if _, err := SecurityRegister(-1); err == nil {
		t.Errorf("accepted SEC-1")
	}
	if s := (RegSEC0 + 5).String(); s != "SEC5" {
		t.Errorf("want SEC5, got %s", s)
	}
}

func TestErase(t *testing.T) {
	f := &fakeTransport{respond: echoReply(".\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	if err := c.EraseSector(0x0400); err != nil {
		t.Fatalf("%s", err)
	}
	if err := c.ErasePage(0x0440); err != nil {
		t.Fatalf("%s", err)
	}
	want := ihex.EncodeRecord(byte(CmdErase), []byte{1, 0x04, 0x00}, 0) +
		ihex.EncodeRecord(byte(CmdErase), []byte{0, 0x04, 0x40}, 0)
	if string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
}

func TestReadSectorCRC(t *testing.T) {
	for i, c := range []struct {
		addr   uint16
		sector byte
	}{
		{addr: 0x07, sector: 0x07},
		{addr: 0xff, sector: 0xff},
		{addr: 0x0400, sector: 0x04},
		{addr: 0x1c80, sector: 0x1c},
	} {
		f := &fakeTransport{respond: echoReply("0011AAFF.\r\n")}
		cl := NewClient(f, f.config(AdapterDirect))
		crc, err := cl.ReadSectorCRC(c.addr)
		if err != nil {
			t.Fatalf("%d: %s", i, err)
		}
		if crc != 0x0011aaff {
			t.Errorf("%d: got %#x", i, crc)
		}
		if want := ihex.EncodeRecord(byte(CmdSectorCRC), []byte{c.sector}, 0); string(f.tx) != want {
			t.Errorf("%d: want %q sent, got %q", i, want, f.tx)
		}
	}
}

func TestReadVersion(t *testing.T) {
	f := &fakeTransport{respond: echoReply("07.\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	v, err := c.ReadVersion()
	if err != nil {
		t.Fatalf("%s", err)
	}
	if v != "07" {
		t.Errorf("want 07, got %q", v)
	}
}

func TestReset(t *testing.T) {
	f := &fakeTransport{}
	c := NewClient(f, f.config(AdapterDirect))
	if err := c.Reset(); err != nil {
		t.Errorf("silent reset: %s", err)
	}
	f = &fakeTransport{respond: echoReply("X\r\n")}
	c = NewClient(f, f.config(AdapterDirect))
	if err := c.Reset(); errors.Cause(err) != ErrMalformedReply {
		t.Errorf("want malformed reply, got %v", err)
	}
}

func TestProgramRecord(t *testing.T) {
	data := []byte{0x02, 0x00, 0x30, 0x75, 0x81, 0x07}
	f := &fakeTransport{respond: echoReply(".\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	ack, err := c.ProgramRecord(0x0010, data)
	if err != nil || ack != '.' {
		t.Fatalf("want '.', got %q %v", ack, err)
	}
	if want := ihex.EncodeRecord(0, data, 0x0010); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}

	f = &fakeTransport{respond: echoReply("V\r\n")}
	c = NewClient(f, f.config(AdapterDirect))
	ack, err = c.ProgramRecord(0x0010, data)
	if ack != 'V' || errors.Cause(err) != ErrMalformedReply {
		t.Errorf("want 'V' and malformed reply, got %q %v", ack, err)
	}

	f = &fakeTransport{}
	c = NewClient(f, f.config(AdapterDirect))
	if _, err = c.ProgramRecord(0x0010, data); errors.Cause(err) != ErrReplyTimeout {
		t.Errorf("want timeout, got %v", err)
	}
	if want := DefaultSettleDelay + DefaultProgramTimeout; f.now != want {
		t.Errorf("want %s spent, got %s", want, f.now)
	}
}

func TestLoadBaudRate(t *testing.T) {
	f := &fakeTransport{respond: echoReply(".\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	if err := c.LoadBaudRate(0x02f0); err != nil {
		t.Fatalf("%s", err)
	}
	if want := ihex.EncodeRecord(byte(CmdLoadBaudRate), []byte{0x02, 0xf0}, 0); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
}

func TestBridgeCommands(t *testing.T) {
	f := &fakeTransport{respond: echoReply("01F4.\r\n")}
	c := NewClient(f, f.config(AdapterDirect))
	if _, err := c.PowerOffTime(); errors.Cause(err) != ErrNotBridge {
		t.Errorf("want ErrNotBridge, got %v", err)
	}
	if err := c.SetICPState(1); errors.Cause(err) != ErrNotBridge {
		t.Errorf("want ErrNotBridge, got %v", err)
	}
	if len(f.tx) != 0 {
		t.Errorf("sent %q with the direct adapter", f.tx)
	}

	c = NewClient(f, f.config(AdapterBridge))
	ms, err := c.PowerOffTime()
	if err != nil || ms != 500 {
		t.Fatalf("want 500, got %d %v", ms, err)
	}
	if want := ihex.EncodeRecord(byte(CmdBridgePowerOff), nil, bridgeQuery); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
	f.tx = nil
	f.respond = echoReply(".\r\n")
	if err := c.SetPowerOffTime(1000); err != nil {
		t.Fatalf("%s", err)
	}
	if want := ihex.EncodeRecord(byte(CmdBridgePowerOff), []byte{0x03, 0xe8}, bridgeSet); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
	f.tx = nil
	if err := c.SetICPState(1); err != nil {
		t.Fatalf("%s", err)
	}
	if want := ihex.EncodeRecord(byte(CmdBridgeICP), []byte{1}, bridgeSet); string(f.tx) != want {
		t.Errorf("want %q sent, got %q", want, f.tx)
	}
	f.respond = echoReply("01.\r\n")
	if st, err := c.ICPState(); err != nil || st != 1 {
		t.Errorf("want 1, got %d %v", st, err)
	}
}

func TestCommandString(t *testing.T) {
	if s := CmdSectorCRC.String(); s != "sector CRC" {
		t.Errorf("got %q", s)
	}
	if s := Command(0x42).String(); s != "cmd 42" {
		t.Errorf("got %q", s)
	}
}

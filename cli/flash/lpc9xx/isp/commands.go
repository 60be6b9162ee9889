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

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// Command is the record type field of a request.
type Command uint8

const (
	CmdProgram        Command = 0x00
	CmdReadVersion    Command = 0x01
	CmdMiscWrite      Command = 0x02
	CmdMiscRead       Command = 0x03
	CmdErase          Command = 0x04
	CmdSectorCRC      Command = 0x05
	CmdGlobalCRC      Command = 0x06
	CmdLoadBaudRate   Command = 0x07
	CmdReset          Command = 0x08
	CmdBridgeICP      Command = 0x0a
	CmdBridgePowerOff Command = 0x0b
)

var commandNames = map[Command]string{
	CmdProgram:        "program",
	CmdReadVersion:    "read version",
	CmdMiscWrite:      "misc write",
	CmdMiscRead:       "misc read",
	CmdErase:          "erase",
	CmdSectorCRC:      "sector CRC",
	CmdGlobalCRC:      "global CRC",
	CmdLoadBaudRate:   "load baud rate",
	CmdReset:          "reset",
	CmdBridgeICP:      "bridge ICP state",
	CmdBridgePowerOff: "bridge power off time",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("cmd %02x", uint8(c))
}

// Register selects a byte for the misc read/write commands.
type Register uint8

const (
	RegUCFG1 Register = 0x00
	RegBOOTV Register = 0x02
	RegSTATB Register = 0x03
	RegSEC0  Register = 0x08
	RegSEC7  Register = 0x0f
	RegMANID Register = 0x10
	RegDEVID Register = 0x11
	RegDERID Register = 0x12

	NumSecurityRegisters = int(RegSEC7-RegSEC0) + 1
)

func SecurityRegister(n int) (Register, error) {
	if n < 0 || n >= NumSecurityRegisters {
		return 0, errors.Errorf("invalid security register %d (0-%d)", n, NumSecurityRegisters-1)
	}
	return RegSEC0 + Register(n), nil
}

func (r Register) String() string {
	switch {
	case r == RegUCFG1:
		return "UCFG1"
	case r == RegBOOTV:
		return "BOOTV"
	case r == RegSTATB:
		return "STATB"
	case r >= RegSEC0 && r <= RegSEC7:
		return fmt.Sprintf("SEC%d", r-RegSEC0)
	case r == RegMANID:
		return "MANID"
	case r == RegDEVID:
		return "DEVID"
	case r == RegDERID:
		return "DERID"
	}
	return fmt.Sprintf("REG%02x", uint8(r))
}

// Writable reports whether the register can be set with misc write.
// The id registers are read-only.
func (r Register) Writable() bool {
	return r == RegUCFG1 || r == RegBOOTV || r == RegSTATB || (r >= RegSEC0 && r <= RegSEC7)
}

const (
	erasePage   = 0x00
	eraseSector = 0x01

	bridgeQuery = 0x0000
	bridgeSet   = 0x0001
)

type IDs struct {
	Manufacturer uint8
	Device       uint8
	Derivative   uint8
}

func (c *Client) ReadRegister(r Register) (uint8, error) {
	v, err := c.byteCommand(CmdMiscRead, 0, byte(r))
	return v, errors.Annotatef(err, "%s", r)
}

func (c *Client) WriteRegister(r Register, v uint8) error {
	if !r.Writable() {
		return errors.Errorf("%s is read-only", r)
	}
	glog.V(1).Infof("%s <- 0x%02x", r, v)
	_, _, err := c.command(CmdMiscWrite, 0, byte(r), v)
	return errors.Annotatef(err, "%s", r)
}

func (c *Client) ReadIDs() (*IDs, error) {
	var ids IDs
	var err error
	if ids.Manufacturer, err = c.ReadRegister(RegMANID); err != nil {
		return nil, errors.Trace(err)
	}
	if ids.Device, err = c.ReadRegister(RegDEVID); err != nil {
		return nil, errors.Trace(err)
	}
	if ids.Derivative, err = c.ReadRegister(RegDERID); err != nil {
		return nil, errors.Trace(err)
	}
	return &ids, nil
}

func (c *Client) ReadVersion() (string, error) {
	txd, rxd, err := c.command(CmdReadVersion, 0)
	if err != nil {
		return "", errors.Trace(err)
	}
	s, _ := ReplyText(txd, rxd)
	return s, nil
}

func (c *Client) EraseSector(addr uint16) error {
	_, _, err := c.command(CmdErase, 0, eraseSector, byte(addr>>8), byte(addr))
	return errors.Annotatef(err, "sector 0x%04x", addr)
}

func (c *Client) ErasePage(addr uint16) error {
	_, _, err := c.command(CmdErase, 0, erasePage, byte(addr>>8), byte(addr))
	return errors.Annotatef(err, "page 0x%04x", addr)
}

// ReadSectorCRC accepts either a sector number or an address within the
// sector, in which case the high byte selects the sector.
func (c *Client) ReadSectorCRC(addr uint16) (uint32, error) {
	sector := addr
	if sector > 0xff {
		sector >>= 8
	}
	v, err := c.longCommand(CmdSectorCRC, 0, byte(sector))
	return v, errors.Annotatef(err, "sector 0x%02x00", sector)
}

func (c *Client) ReadGlobalCRC() (uint32, error) {
	v, err := c.longCommand(CmdGlobalCRC, 0)
	return v, errors.Trace(err)
}

// LoadBaudRate loads the baud rate generator (BRGR1:BRGR0) directly.
// The new rate takes effect after the reply; the port must follow.
func (c *Client) LoadBaudRate(brg uint16) error {
	_, _, err := c.command(CmdLoadBaudRate, 0, byte(brg>>8), byte(brg))
	return errors.Trace(err)
}

// Reset restarts the target. The bootloader may reset before it manages
// to reply, so silence is not an error.
func (c *Client) Reset() error {
	txd, rxd, err := c.Exchange(CmdReset, 0, nil, c.cfg.CommandTimeout)
	if errors.Cause(err) == ErrReplyTimeout {
		glog.V(1).Infof("no reply to reset")
		return nil
	}
	if err != nil {
		return errors.Trace(err)
	}
	if !replyValid(txd, rxd) {
		return errors.Annotatef(ErrMalformedReply, "reset: %q", rxd)
	}
	return nil
}

// ProgramRecord writes one data record to flash and returns the status
// character of the reply.
func (c *Client) ProgramRecord(addr uint16, data []byte) (byte, error) {
	txd, rxd, err := c.Exchange(CmdProgram, addr, data, c.cfg.ProgramTimeout)
	if err != nil {
		return 0, errors.Annotatef(err, "0x%04x", addr)
	}
	ack := AckChar(rxd)
	if ack != '.' || !replyValid(txd, rxd) {
		return ack, errors.Annotatef(ErrMalformedReply, "0x%04x: status %q, reply %q", addr, ack, rxd)
	}
	return ack, nil
}

func (c *Client) requireBridge() error {
	if c.cfg.Adapter != AdapterBridge {
		return errors.Trace(ErrNotBridge)
	}
	return nil
}

func (c *Client) ICPState() (uint8, error) {
	if err := c.requireBridge(); err != nil {
		return BadReplyByte, err
	}
	v, err := c.byteCommand(CmdBridgeICP, bridgeQuery)
	return v, errors.Trace(err)
}

func (c *Client) SetICPState(state uint8) error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	_, _, err := c.command(CmdBridgeICP, bridgeSet, state)
	return errors.Trace(err)
}

// PowerOffTime returns how long, in milliseconds, the bridge keeps the
// target unpowered during activation.
func (c *Client) PowerOffTime() (uint16, error) {
	if err := c.requireBridge(); err != nil {
		return BadReplyShort, err
	}
	v, err := c.shortCommand(CmdBridgePowerOff, bridgeQuery)
	return v, errors.Trace(err)
}

func (c *Client) SetPowerOffTime(ms uint16) error {
	if err := c.requireBridge(); err != nil {
		return err
	}
	_, _, err := c.command(CmdBridgePowerOff, bridgeSet, byte(ms>>8), byte(ms))
	return errors.Trace(err)
}

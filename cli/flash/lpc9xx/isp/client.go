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
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/common/ihex"
)

// Longest reply is an echoed 16 byte program record plus status.
const replyBufSize = 128

// Client speaks the bootloader's record protocol over a transport.
// Only one request may be outstanding at a time.
type Client struct {
	t   Transport
	cfg Config
}

func NewClient(t Transport, cfg Config) *Client {
	return &Client{t: t, cfg: cfg.withDefaults()}
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) Transport() Transport {
	return c.t
}

// Exchange sends one command record and returns what was sent and what
// came back. No reply within the timeout is ErrReplyTimeout.
func (c *Client) Exchange(cmd Command, addr uint16, payload []byte, timeout time.Duration) (string, string, error) {
	txd := ihex.EncodeRecord(byte(cmd), payload, addr)
	glog.V(2).Infof("=> %s (%s)", txd, cmd)
	if err := WritePacket(c.t, []byte(txd), c.cfg.SettleDelay, c.cfg.Sleep); err != nil {
		return txd, "", errors.Annotatef(err, "%s", cmd)
	}
	buf := make([]byte, replyBufSize)
	n, err := ReadPacket(c.t, buf, timeout, RecordClassifier, c.cfg.Sleep)
	if err != nil {
		return txd, "", errors.Annotatef(err, "%s", cmd)
	}
	rxd := string(buf[:n])
	glog.V(2).Infof("<= %q", rxd)
	if n == 0 {
		return txd, "", errors.Annotatef(ErrReplyTimeout, "%s", cmd)
	}
	return txd, rxd, nil
}

func (c *Client) command(cmd Command, addr uint16, payload ...byte) (string, string, error) {
	txd, rxd, err := c.Exchange(cmd, addr, payload, c.cfg.CommandTimeout)
	if err != nil {
		return txd, rxd, errors.Trace(err)
	}
	if !replyValid(txd, rxd) {
		return txd, rxd, errors.Annotatef(ErrMalformedReply, "%s: %q", cmd, rxd)
	}
	return txd, rxd, nil
}

func (c *Client) byteCommand(cmd Command, addr uint16, payload ...byte) (uint8, error) {
	txd, rxd, err := c.command(cmd, addr, payload...)
	if err != nil {
		return BadReplyByte, errors.Trace(err)
	}
	v, ok := ReplyByte(txd, rxd)
	if !ok {
		return v, errors.Annotatef(ErrMalformedReply, "%s: %q", cmd, rxd)
	}
	return v, nil
}

func (c *Client) shortCommand(cmd Command, addr uint16, payload ...byte) (uint16, error) {
	txd, rxd, err := c.command(cmd, addr, payload...)
	if err != nil {
		return BadReplyShort, errors.Trace(err)
	}
	v, ok := ReplyShort(txd, rxd)
	if !ok {
		return v, errors.Annotatef(ErrMalformedReply, "%s: %q", cmd, rxd)
	}
	return v, nil
}

func (c *Client) longCommand(cmd Command, addr uint16, payload ...byte) (uint32, error) {
	txd, rxd, err := c.command(cmd, addr, payload...)
	if err != nil {
		return BadReplyLong, errors.Trace(err)
	}
	v, ok := ReplyLong(txd, rxd)
	if !ok {
		return v, errors.Annotatef(ErrMalformedReply, "%s: %q", cmd, rxd)
	}
	return v, nil
}

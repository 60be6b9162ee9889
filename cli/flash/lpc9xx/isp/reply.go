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

	"github.com/lpcprog/lpcprog/common/ihex"
)

// Values returned alongside ok == false when a reply cannot be decoded.
const (
	BadReplyByte  uint8  = 0
	BadReplyShort uint16 = 0xbad0
	BadReplyLong  uint32 = 0xbad0bad0
)

// replyTail terminates every successful reply.
const replyTail = ".\r\n"

// replyValid checks that rxd is a successful reply to txd: the status
// character before CR LF is '.' and the reply starts with an echo of txd.
func replyValid(txd, rxd string) bool {
	return len(rxd) >= len(replyTail) &&
		rxd[len(rxd)-3] == '.' &&
		len(rxd) >= len(txd) &&
		strings.EqualFold(rxd[:len(txd)], txd)
}

// replyValue decodes the numDigits hex digits following the echo of txd.
func replyValue(txd, rxd string, numDigits int) (uint32, bool) {
	if !replyValid(txd, rxd) || len(rxd) < len(txd)+numDigits {
		return 0, false
	}
	var v uint32
	for _, c := range []byte(rxd[len(txd) : len(txd)+numDigits]) {
		n, err := ihex.Nibble(c)
		if err != nil {
			return 0, false
		}
		v = v<<4 | uint32(n)
	}
	return v, true
}

func ReplyByte(txd, rxd string) (uint8, bool) {
	v, ok := replyValue(txd, rxd, 2)
	if !ok {
		return BadReplyByte, false
	}
	return uint8(v), true
}

func ReplyShort(txd, rxd string) (uint16, bool) {
	v, ok := replyValue(txd, rxd, 4)
	if !ok {
		return BadReplyShort, false
	}
	return uint16(v), true
}

func ReplyLong(txd, rxd string) (uint32, bool) {
	v, ok := replyValue(txd, rxd, 8)
	if !ok {
		return BadReplyLong, false
	}
	return v, true
}

// ReplyText returns whatever follows the echo, without the tail.
func ReplyText(txd, rxd string) (string, bool) {
	if !replyValid(txd, rxd) {
		return "", false
	}
	return strings.TrimSuffix(rxd[len(txd):], replyTail), true
}

// AckChar returns the status character of a reply: '.' on success,
// an error code otherwise.
func AckChar(rxd string) byte {
	if len(rxd) < 3 {
		return 0
	}
	return rxd[len(rxd)-3]
}

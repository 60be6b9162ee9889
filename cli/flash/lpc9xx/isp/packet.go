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
)

const pollInterval = 10 * time.Millisecond

type PacketStatus int

const (
	PacketIncomplete PacketStatus = iota
	PacketComplete
)

// Classifier decides whether the bytes received so far form a whole packet.
type Classifier func(buf []byte) PacketStatus

// RecordClassifier recognizes a finished reply record: more than three
// bytes, starting with ':' and terminated by CR LF.
func RecordClassifier(buf []byte) PacketStatus {
	n := len(buf)
	if n > 3 && buf[0] == ':' && buf[n-2] == '\r' && buf[n-1] == '\n' {
		return PacketComplete
	}
	return PacketIncomplete
}

// ByteClassifier never completes a packet, reads end when the buffer is full.
func ByteClassifier(buf []byte) PacketStatus {
	return PacketIncomplete
}

// ReadPacket reads into buf until classify reports a complete packet, buf
// is full or the timeout expires. The timeout is spent in poll intervals
// shared between waiting for the first byte and collecting the rest.
// Zero bytes with a nil error means nothing arrived in time.
func ReadPacket(t Transport, buf []byte, timeout time.Duration, classify Classifier, sleep func(time.Duration)) (int, error) {
	ticks := int((timeout + pollInterval - 1) / pollInterval)
	avail, err := t.Pending()
	if err != nil {
		return 0, errors.Trace(err)
	}
	for avail == 0 && ticks > 0 {
		sleep(pollInterval)
		ticks--
		if avail, err = t.Pending(); err != nil {
			return 0, errors.Trace(err)
		}
	}
	if avail == 0 {
		glog.V(3).Infof("<= timeout after %s", timeout)
		return 0, nil
	}
	n := 0
	for {
		if avail > 0 {
			end := n + avail
			if end > len(buf) {
				end = len(buf)
			}
			r, err := t.Read(buf[n:end])
			n += r
			if err != nil {
				return n, errors.Trace(err)
			}
		}
		if n >= len(buf) || classify(buf[:n]) == PacketComplete || ticks <= 0 {
			break
		}
		sleep(pollInterval)
		ticks--
		if avail, err = t.Pending(); err != nil {
			return n, errors.Trace(err)
		}
	}
	glog.V(3).Infof("<= (%d) %q", n, buf[:n])
	return n, nil
}

// WritePacket writes all of buf, then gives the bootloader settle time to
// digest it.
func WritePacket(t Transport, buf []byte, settle time.Duration, sleep func(time.Duration)) error {
	for written := 0; written < len(buf); {
		n, err := t.Write(buf[written:])
		written += n
		if err != nil {
			return errors.Annotatef(err, "write failed after %d of %d bytes", written, len(buf))
		}
		if n == 0 {
			return errors.Errorf("write stalled after %d of %d bytes", written, len(buf))
		}
	}
	glog.V(3).Infof("=> (%d) %q", len(buf), buf)
	sleep(settle)
	return nil
}

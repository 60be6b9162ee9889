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
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/lpcprog/lpcprog/common/ihex"
)

// Bytes sent in one program record.
const ChunkSize = 16

// Programmer writes one data record to flash, returning the status char.
type Programmer interface {
	ProgramRecord(addr uint16, data []byte) (byte, error)
}

// ProgressFunc is called after every record with the number of bytes
// done out of total and the record's status char.
type ProgressFunc func(done, total int, ack byte)

type Result struct {
	// Image length, highest address plus one.
	Bytes   int
	Records int
	Elapsed time.Duration
}

// Program loads a HEX file and writes it to flash. Nothing is sent to the
// target if the file cannot be decoded.
func Program(p Programmer, fname string, progress ProgressFunc) (*Result, error) {
	im, err := ihex.DecodeFile(fname, ihex.DefaultCapacity)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to load %s", fname)
	}
	return ProgramImage(p, im, progress)
}

// ProgramImage writes the image from address 0 up to its highest written
// address in 16 byte records. Gaps are sent as erased bytes. The first
// record that is not acknowledged aborts programming.
func ProgramImage(p Programmer, im *ihex.Image, progress ProgressFunc) (*Result, error) {
	res := &Result{}
	if !im.Used() {
		glog.Warningf("image is empty, nothing to program")
		return res, nil
	}
	start := time.Now()
	total := im.Highest() + 1
	for addr := 0; addr < total; addr += ChunkSize {
		end := addr + ChunkSize
		if end > len(im.Data) {
			end = len(im.Data)
		}
		ack, err := p.ProgramRecord(uint16(addr), im.Data[addr:end])
		if err != nil {
			return res, errors.Annotatef(err, "programming failed at 0x%04x", addr)
		}
		res.Records++
		res.Bytes = end
		if res.Bytes > total {
			res.Bytes = total
		}
		if progress != nil {
			progress(res.Bytes, total, ack)
		}
	}
	res.Elapsed = time.Since(start)
	glog.V(1).Infof("%d records, %d bytes in %s", res.Records, res.Bytes, res.Elapsed)
	return res, nil
}

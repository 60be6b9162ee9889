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
package ihex

import (
	"bufio"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

const (
	// ErasedByte is the value of unprogrammed flash.
	ErasedByte = 0xff

	// DefaultCapacity covers the whole 16-bit code space.
	DefaultCapacity = 0x10000
)

// Image is a flat memory image decoded from an Intel HEX file.
// Bytes not covered by any data record hold ErasedByte.
type Image struct {
	Data    []byte
	highest int
	used    bool
}

func NewImage(capacity int) *Image {
	data := make([]byte, capacity)
	for i := range data {
		data[i] = ErasedByte
	}
	return &Image{Data: data}
}

// Highest returns the highest address written by a data record. Note that
// this is an address, not a length: an image holding a single byte at 0
// and an empty image both report 0. Use Used to tell them apart.
func (im *Image) Highest() int {
	return im.highest
}

func (im *Image) Used() bool {
	return im.used
}

// Len returns the number of bytes from address 0 up to and including the
// highest written address.
func (im *Image) Len() int {
	if !im.used {
		return 0
	}
	return im.highest + 1
}

func (im *Image) apply(base uint32, r *Record) error {
	for i, b := range r.Data {
		addr := base + uint32(r.Addr) + uint32(i)
		if addr >= uint32(len(im.Data)) {
			return errors.Annotatef(ErrAddressOutOfBounds, "0x%x (capacity 0x%x)", addr, len(im.Data))
		}
		im.Data[addr] = b
		if !im.used || int(addr) > im.highest {
			im.highest = int(addr)
		}
		im.used = true
	}
	return nil
}

// Decode reads Intel HEX text into a new image of the given capacity.
// Lines that do not start with ':' are skipped. The end-of-file record
// is a no-op, records after it are still decoded. On error the image
// must be discarded.
func Decode(r io.Reader, capacity int) (*Image, error) {
	im := NewImage(capacity)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	var base uint32
	for scanner.Scan() {
		lineNo++
		l := scanner.Text()
		if len(l) == 0 || l[0] != ':' {
			continue
		}
		rec, err := ParseRecord(l)
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNo)
		}
		switch rec.Type {
		case RecordData:
			if err := im.apply(base, rec); err != nil {
				return nil, errors.Annotatef(err, "line %d", lineNo)
			}
		case RecordEOF:
			glog.V(2).Infof("EOF at line %d, highest address 0x%x", lineNo, im.highest)
		case RecordExtSegmentAddr:
			if len(rec.Data) != 2 {
				return nil, errors.Annotatef(ErrRecordLength, "line %d: extended segment address", lineNo)
			}
			base = (uint32(rec.Data[0])<<8 | uint32(rec.Data[1])) << 4
		case RecordExtLinearAddr:
			if len(rec.Data) != 2 {
				return nil, errors.Annotatef(ErrRecordLength, "line %d: extended linear address", lineNo)
			}
			base = (uint32(rec.Data[0])<<8 | uint32(rec.Data[1])) << 16
		case RecordStartSegment, RecordStartLinear:
			// Entry point, meaningless for a flash image.
		default:
			return nil, errors.Annotatef(ErrUnknownRecordType, "line %d: %02x", lineNo, uint8(rec.Type))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "line %d", lineNo)
	}
	return im, nil
}

func DecodeFile(fname string, capacity int) (*Image, error) {
	f, err := os.Open(fname)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Annotatef(ErrFileNotFound, "%s", fname)
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()
	im, err := Decode(f, capacity)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", fname)
	}
	return im, nil
}

// EncodeImage writes data[0:length] as data records of at most
// maxBytesPerLine bytes each, followed by the end-of-file record.
// Extended linear address records are emitted only for data above 64K.
func EncodeImage(w io.Writer, data []byte, length, maxBytesPerLine int) error {
	if maxBytesPerLine < 1 || maxBytesPerLine > 0xff {
		return errors.Errorf("invalid line length %d", maxBytesPerLine)
	}
	if length < 0 || length > len(data) {
		return errors.Errorf("invalid length %d (have %d bytes)", length, len(data))
	}
	bw := bufio.NewWriter(w)
	var segment uint32
	for pos := 0; pos < length; {
		if seg := uint32(pos) >> 16; seg != segment {
			ela := &Record{Type: RecordExtLinearAddr, Data: []byte{byte(seg >> 8), byte(seg)}}
			if _, err := bw.WriteString(ela.String() + "\n"); err != nil {
				return errors.Trace(err)
			}
			segment = seg
		}
		end := pos + maxBytesPerLine
		if end > length {
			end = length
		}
		if next := int(segment+1) << 16; end > next {
			end = next
		}
		rec := &Record{Type: RecordData, Addr: uint16(pos), Data: data[pos:end]}
		if _, err := bw.WriteString(rec.String() + "\n"); err != nil {
			return errors.Trace(err)
		}
		pos = end
	}
	if _, err := bw.WriteString(EOFRecord + "\n"); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(bw.Flush())
}

func EncodeFile(fname string, data []byte, length, maxBytesPerLine int) error {
	f, err := os.Create(fname)
	if err != nil {
		return errors.Trace(err)
	}
	if err := EncodeImage(f, data, length, maxBytesPerLine); err != nil {
		f.Close()
		return errors.Annotatef(err, "%s", fname)
	}
	return errors.Trace(f.Close())
}

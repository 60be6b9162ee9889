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
	"fmt"
	"strings"

	"github.com/juju/errors"
)

type RecordType uint8

const (
	RecordData           RecordType = 0x00
	RecordEOF            RecordType = 0x01
	RecordExtSegmentAddr RecordType = 0x02
	RecordStartSegment   RecordType = 0x03
	RecordExtLinearAddr  RecordType = 0x04
	RecordStartLinear    RecordType = 0x05
)

const (
	// ':' + length + address + type + checksum.
	recordOverhead = 11

	// EOFRecord terminates every file produced by EncodeImage.
	EOFRecord = ":00000001FF"
)

var (
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrInvalidHexDigit    = errors.New("invalid hex digit")
	ErrRecordLength       = errors.New("invalid record length")
	ErrUnknownRecordType  = errors.New("unknown record type")
	ErrAddressOutOfBounds = errors.New("address out of bounds")
	ErrFileNotFound       = errors.New("file not found")
)

// Record is a single parsed line of an Intel HEX file.
type Record struct {
	Type RecordType
	Addr uint16
	Data []byte
}

// Checksum returns the two's complement of the sum of the given bytes,
// i.e. the byte that makes the whole record sum to zero.
func Checksum(bb ...byte) byte {
	var sum byte
	for _, b := range bb {
		sum += b
	}
	return -sum
}

// Nibble converts a single ASCII hex digit (either case) to its value.
func Nibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, errors.Annotatef(ErrInvalidHexDigit, "%q", c)
}

// HexByte decodes two hex digits.
func HexByte(hi, lo byte) (byte, error) {
	h, err := Nibble(hi)
	if err != nil {
		return 0, errors.Trace(err)
	}
	l, err := Nibble(lo)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return h<<4 | l, nil
}

// ParseRecord parses and validates one line. The line must start with ':';
// trailing whitespace is ignored.
func ParseRecord(line string) (*Record, error) {
	l := strings.TrimRight(line, " \t\r\n")
	if len(l) == 0 || l[0] != ':' {
		return nil, errors.Errorf("invalid start of the record")
	}
	if len(l) < recordOverhead || len(l)%2 != 1 {
		return nil, errors.Annotatef(ErrRecordLength, "too short (%d)", len(l))
	}
	body := make([]byte, 0, (len(l)-1)/2)
	for i := 1; i < len(l); i += 2 {
		b, err := HexByte(l[i], l[i+1])
		if err != nil {
			return nil, errors.Annotatef(err, "offset %d", i)
		}
		body = append(body, b)
	}
	if cs := Checksum(body...); cs != 0 {
		return nil, errors.Annotatef(ErrChecksumMismatch,
			"want %02x, got %02x", body[len(body)-1], Checksum(body[:len(body)-1]...))
	}
	recLen := int(body[0])
	if len(body) != 4+recLen+1 {
		return nil, errors.Annotatef(ErrRecordLength, "length field %d, record holds %d", recLen, len(body)-5)
	}
	return &Record{
		Type: RecordType(body[3]),
		Addr: uint16(body[1])<<8 | uint16(body[2]),
		Data: body[4 : 4+recLen],
	}, nil
}

// EncodeRecord renders a single record without a line terminator, in lower case
// hex as the bootloader echoes it back. The record type slot carries an
// arbitrary id, which is how device commands are framed.
// The payload must not exceed 255 bytes.
func EncodeRecord(recordID byte, payload []byte, addr uint16) string {
	var sb strings.Builder
	sb.Grow(recordOverhead + 2*len(payload))
	writeRecord(&sb, "%02x", recordID, payload, addr)
	return sb.String()
}

func (r *Record) String() string {
	var sb strings.Builder
	writeRecord(&sb, "%02X", byte(r.Type), r.Data, r.Addr)
	return sb.String()
}

func writeRecord(sb *strings.Builder, byteFmt string, recordID byte, payload []byte, addr uint16) {
	hdr := []byte{byte(len(payload)), byte(addr >> 8), byte(addr), recordID}
	sb.WriteByte(':')
	for _, b := range hdr {
		fmt.Fprintf(sb, byteFmt, b)
	}
	for _, b := range payload {
		fmt.Fprintf(sb, byteFmt, b)
	}
	fmt.Fprintf(sb, byteFmt, Checksum(append(hdr, payload...)...))
}

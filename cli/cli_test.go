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
package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/lpcprog/lpcprog/cli/flags"
	"github.com/lpcprog/lpcprog/common/ihex"
)

func TestHexBinRoundTrip(t *testing.T) {
	dir := t.TempDir()
	hexIn := filepath.Join(dir, "in.hex")
	hexSrc := ihex.EncodeRecord(0, []byte{0x02, 0x00, 0x33, 0x80}, 0) + "\n" +
		":01000A00FFF6\n" +
		":00000001FF\n"
	if err := ioutil.WriteFile(hexIn, []byte(hexSrc), 0644); err != nil {
		t.Fatal(err)
	}

	binOut := filepath.Join(dir, "out.bin")
	n, err := hexToBin(hexIn, binOut)
	if err != nil {
		t.Fatalf("hexToBin: %s", err)
	}
	want := []byte{0x02, 0x00, 0x33, 0x80, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	if n != len(want) {
		t.Errorf("want %d bytes, got %d", len(want), n)
	}
	got, _ := ioutil.ReadFile(binOut)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("binary mismatch (-want +got):\n%s", diff)
	}

	hexOut := filepath.Join(dir, "out.hex")
	if _, err := binToHex(binOut, hexOut, 8); err != nil {
		t.Fatalf("binToHex: %s", err)
	}
	im, err := ihex.DecodeFile(hexOut, ihex.DefaultCapacity)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if diff := cmp.Diff(want, im.Data[:im.Len()]); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHexToBinErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := hexToBin(filepath.Join(dir, "missing.hex"), filepath.Join(dir, "x.bin")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
	bad := filepath.Join(dir, "bad.hex")
	ioutil.WriteFile(bad, []byte(":0100000055AB\n"), 0644)
	if _, err := hexToBin(bad, filepath.Join(dir, "x.bin")); err == nil {
		t.Errorf("expected a checksum error")
	}
	big := filepath.Join(dir, "big.bin")
	ioutil.WriteFile(big, make([]byte, ihex.DefaultCapacity+1), 0644)
	if _, err := binToHex(big, filepath.Join(dir, "x.hex"), 16); err == nil {
		t.Errorf("expected an error for an oversized binary")
	}
}

func TestParseValue(t *testing.T) {
	for i, c := range []struct {
		s    string
		bits int
		want uint64
		ok   bool
	}{
		{"0x63", 8, 0x63, true},
		{"99", 8, 99, true},
		{"0xff", 8, 0xff, true},
		{"0x100", 8, 0, false},
		{"0x1234", 16, 0x1234, true},
		{"-1", 8, 0, false},
		{"abc", 16, 0, false},
	} {
		got, err := parseValue(c.s, c.bits)
		if (err == nil) != c.ok {
			t.Errorf("%d: %q: unexpected error state %v", i, c.s, err)
			continue
		}
		if got != c.want {
			t.Errorf("%d: %q: want 0x%x, got 0x%x", i, c.s, c.want, got)
		}
	}
}

func TestPrintRegisters(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printUCFG1(&buf, 0x63)
	out := buf.String()
	for _, s := range []string{"UCFG1: 0x63", "WDTE", "RPE", "Internal RC oscillator"} {
		if !strings.Contains(out, s) {
			t.Errorf("%q is not in %q", s, out)
		}
	}
	buf.Reset()
	printUCFG1(&buf, 0x05)
	if !strings.Contains(buf.String(), "reserved FOSC value 5") {
		t.Errorf("reserved oscillator not reported: %q", buf.String())
	}
	buf.Reset()
	printSEC(&buf, 3, 0x04)
	if !strings.Contains(buf.String(), "EDIS3") || !strings.Contains(buf.String(), "for sector 3") {
		t.Errorf("unexpected SEC3 output: %q", buf.String())
	}
}

func TestSecRange(t *testing.T) {
	defer func(v int) { *flags.Sec = v }(*flags.Sec)
	for i, c := range []struct {
		sec      int
		from, to int
		ok       bool
	}{
		{-1, 0, 7, true},
		{0, 0, 0, true},
		{7, 7, 7, true},
		{8, 0, 0, false},
	} {
		*flags.Sec = c.sec
		from, to, err := secRange()
		if (err == nil) != c.ok {
			t.Errorf("%d: unexpected error state %v", i, err)
			continue
		}
		if from != c.from || to != c.to {
			t.Errorf("%d: want %d-%d, got %d-%d", i, c.from, c.to, from, to)
		}
	}
}

func TestBytesPerSecond(t *testing.T) {
	if got := bytesPerSecond(1000, 0); got != 0 {
		t.Errorf("want 0, got %f", got)
	}
	if got := bytesPerSecond(1000, 2e9); got != 500 {
		t.Errorf("want 500, got %f", got)
	}
}

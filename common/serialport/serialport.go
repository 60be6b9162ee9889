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
// Package serialport wraps a serial port with a non-blocking read side:
// incoming bytes are collected in the background so that callers can ask
// how much is pending and poll without blocking.
package serialport

import (
	"io"
	"sync"
	"time"

	"github.com/cesanta/go-serial/serial"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

const (
	// The driver returns io.EOF when no data arrives within this interval.
	interCharacterTimeout = 100 * time.Millisecond

	readChunkSize = 256
)

var ErrClosed = errors.New("port is closed")

type Options struct {
	BaudRate uint
	// Level DTR and RTS are set to right after opening.
	InitialLineLevel bool
}

// conn is the part of serial.Serial the port uses.
type conn interface {
	io.ReadWriteCloser
	SetDTR(level bool) error
	SetRTS(level bool) error
}

type Port struct {
	name string
	conn conn

	// Reads and writes lock closeLock for reading, Close locks it for
	// writing, so that the port is never closed under a pending call.
	closeLock sync.RWMutex
	isClosed  bool

	rxLock      sync.Mutex
	rxBuf       []byte
	rxErr       error
	lastEOFTime time.Time
	pumpDone    chan struct{}
}

func Open(name string, opts *Options) (*Port, error) {
	glog.V(1).Infof("Opening %s @ %d...", name, opts.BaudRate)
	oo := serial.OpenOptions{
		PortName:              name,
		BaudRate:              opts.BaudRate,
		DataBits:              8,
		ParityMode:            serial.PARITY_NONE,
		StopBits:              1,
		InterCharacterTimeout: uint(interCharacterTimeout / time.Millisecond),
		MinimumReadSize:       0,
	}
	s, err := serial.Open(oo)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open %s", name)
	}
	s.SetDTR(opts.InitialLineLevel)
	s.SetRTS(opts.InitialLineLevel)
	// Flush any data that might be not yet read
	s.Flush()
	return newPort(name, s), nil
}

func newPort(name string, c conn) *Port {
	p := &Port{
		name:     name,
		conn:     c,
		pumpDone: make(chan struct{}),
	}
	go p.pump()
	return p
}

func (p *Port) Name() string {
	return p.name
}

func (p *Port) connRead(buf []byte) (int, error) {
	p.closeLock.RLock()
	defer p.closeLock.RUnlock()
	if p.isClosed {
		return 0, ErrClosed
	}
	return p.conn.Read(buf)
}

// isPseudoEOF tells a read timeout from the real end of stream: the driver
// reports both as io.EOF, but a timeout cannot happen twice in quick
// succession.
func (p *Port) isPseudoEOF() bool {
	now := time.Now()
	pseudo := !p.lastEOFTime.Add(interCharacterTimeout / 2).After(now)
	p.lastEOFTime = now
	return pseudo
}

func (p *Port) pump() {
	defer close(p.pumpDone)
	buf := make([]byte, readChunkSize)
	for {
		n, err := p.connRead(buf)
		if n > 0 {
			glog.V(4).Infof("%s: got %d %q", p.name, n, buf[:n])
			p.rxLock.Lock()
			p.rxBuf = append(p.rxBuf, buf[:n]...)
			p.rxLock.Unlock()
		}
		if err == nil {
			continue
		}
		if err == ErrClosed {
			return
		}
		if errors.Cause(err) == io.EOF && p.isPseudoEOF() {
			continue
		}
		glog.V(1).Infof("%s: read error: %s", p.name, err)
		p.rxLock.Lock()
		p.rxErr = errors.Trace(err)
		p.rxLock.Unlock()
		return
	}
}

// Pending returns the number of bytes received and not yet read. A read
// error is reported once all data before it has been consumed.
func (p *Port) Pending() (int, error) {
	p.rxLock.Lock()
	defer p.rxLock.Unlock()
	if len(p.rxBuf) == 0 && p.rxErr != nil {
		return 0, p.rxErr
	}
	return len(p.rxBuf), nil
}

// Read returns whatever has been received, without waiting.
func (p *Port) Read(buf []byte) (int, error) {
	p.rxLock.Lock()
	defer p.rxLock.Unlock()
	if len(p.rxBuf) == 0 && p.rxErr != nil {
		return 0, p.rxErr
	}
	n := copy(buf, p.rxBuf)
	p.rxBuf = p.rxBuf[n:]
	return n, nil
}

// Flush drops everything received so far.
func (p *Port) Flush() {
	p.rxLock.Lock()
	defer p.rxLock.Unlock()
	if len(p.rxBuf) > 0 {
		glog.V(3).Infof("%s: dropping %q", p.name, p.rxBuf)
	}
	p.rxBuf = nil
}

func (p *Port) Write(buf []byte) (int, error) {
	p.closeLock.RLock()
	defer p.closeLock.RUnlock()
	if p.isClosed {
		return 0, ErrClosed
	}
	n, err := p.conn.Write(buf)
	return n, errors.Trace(err)
}

func (p *Port) SetDTR(level bool) error {
	p.closeLock.RLock()
	defer p.closeLock.RUnlock()
	if p.isClosed {
		return ErrClosed
	}
	return errors.Trace(p.conn.SetDTR(level))
}

func (p *Port) SetRTS(level bool) error {
	p.closeLock.RLock()
	defer p.closeLock.RUnlock()
	if p.isClosed {
		return ErrClosed
	}
	return errors.Trace(p.conn.SetRTS(level))
}

func (p *Port) Close() error {
	p.closeLock.Lock()
	if p.isClosed {
		p.closeLock.Unlock()
		return nil
	}
	glog.V(1).Infof("closing %s", p.name)
	p.isClosed = true
	err := p.conn.Close()
	p.closeLock.Unlock()
	<-p.pumpDone
	return errors.Trace(err)
}

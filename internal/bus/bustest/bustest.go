// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bustest provides fakes for code built on package bus.
package bustest

import (
	"errors"
	"sync"
	"time"

	"github.com/relabs-tech/tilt_computer/internal/bus"
)

// ErrNack is returned by injected failures.
var ErrNack = errors.New("bustest: nack")

// Write is one acknowledged register write.
type Write struct {
	Reg  byte
	Data []byte
}

// Device is a register-file slave implementing bus.Link.
//
// Writes land in Regs and are recorded in Writes. Reads come from Regs unless
// Feed is set, in which case Feed fills the buffer.
type Device struct {
	mu sync.Mutex

	Addr uint16
	Regs [256]byte

	// FailWrites makes every data phase of a write to the register fail.
	FailWrites map[byte]bool
	// FailAll fails every phase of every transaction.
	FailAll bool
	// FailReadsAfter, when positive, fails every read data phase once that
	// many reads have succeeded.
	FailReadsAfter int

	Feed func(reg byte, buf []byte)

	Writes        []Write
	WriteAttempts map[byte]int
	ReadRegs      []byte

	latched byte
	reads   int
}

// NewDevice returns a fake answering on addr.
func NewDevice(addr uint16) *Device {
	return &Device{Addr: addr, FailWrites: map[byte]bool{}, WriteAttempts: map[byte]int{}}
}

var _ bus.Link = (*Device)(nil)

func (d *Device) TransmitHeader(addr uint16, reg byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailAll || addr != d.Addr {
		return ErrNack
	}
	d.latched = reg
	return nil
}

func (d *Device) Transmit(addr uint16, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.WriteAttempts[d.latched]++
	if d.FailAll || addr != d.Addr || d.FailWrites[d.latched] {
		return ErrNack
	}
	copy(d.Regs[d.latched:], data)
	d.Writes = append(d.Writes, Write{Reg: d.latched, Data: append([]byte(nil), data...)})
	return nil
}

func (d *Device) Receive(addr uint16, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailAll || addr != d.Addr {
		return ErrNack
	}
	if d.FailReadsAfter > 0 && d.reads >= d.FailReadsAfter {
		return ErrNack
	}
	d.reads++
	d.ReadRegs = append(d.ReadRegs, d.latched)
	if d.Feed != nil {
		d.Feed(d.latched, buf)
		return nil
	}
	copy(buf, d.Regs[d.latched:])
	return nil
}

// WrittenRegs returns the registers of all acknowledged writes, in order.
func (d *Device) WrittenRegs() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := make([]byte, len(d.Writes))
	for i, w := range d.Writes {
		regs[i] = w.Reg
	}
	return regs
}

// Sleeper records requested delays without sleeping.
type Sleeper struct {
	mu     sync.Mutex
	Delays []time.Duration
}

func (s *Sleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	s.Delays = append(s.Delays, d)
	s.mu.Unlock()
}

// Total returns the sum of all recorded delays.
func (s *Sleeper) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t time.Duration
	for _, d := range s.Delays {
		t += d
	}
	return t
}

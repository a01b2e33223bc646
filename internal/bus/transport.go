// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus implements register-level transactions over a two-wire bus.
//
// Every transaction has two phases: a header phase that addresses the slave
// and selects the register, and a data phase that moves the payload. Each
// phase is retried on its own, immediately, up to a fixed attempt budget. The
// attempt counter starts over for every phase. Running out of attempts always
// yields a *TransportError; it never blocks or panics.
package bus

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// DefaultAttempts is the default per-phase attempt budget.
const DefaultAttempts = 50

// Phase identifies which half of a transaction failed.
type Phase int

const (
	PhaseHeader Phase = iota
	PhaseData
)

func (p Phase) String() string {
	switch p {
	case PhaseHeader:
		return "header"
	case PhaseData:
		return "data"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Op names used in errors, logs and metrics.
const (
	OpWrite = "write"
	OpRead  = "read"
)

// ErrTransport matches every *TransportError via errors.Is.
var ErrTransport = errors.New("bus: transport failure")

// TransportError reports a phase that failed on every attempt.
type TransportError struct {
	Op       string
	Phase    Phase
	Addr     uint16
	Reg      byte
	Attempts int
	Err      error // last attempt
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bus: %s 0x%02X reg 0x%02X: %s phase failed after %d attempts: %v",
		e.Op, e.Addr, e.Reg, e.Phase, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// Link is the raw bus primitive set. Each call is a single attempt.
type Link interface {
	// TransmitHeader addresses the slave and selects reg.
	TransmitHeader(addr uint16, reg byte) error
	// Transmit sends a payload to the register selected by the last header.
	Transmit(addr uint16, data []byte) error
	// Receive fills buf starting at the register selected by the last header.
	Receive(addr uint16, buf []byte) error
}

// Observer is notified about retries and exhausted phases.
type Observer interface {
	Retry(op string, phase Phase)
	Exhausted(op string, phase Phase)
}

// Transport runs register transactions over a Link with bounded retry.
// It is not safe for concurrent use; only one transaction may be in flight.
type Transport struct {
	link     Link
	attempts int
	obs      Observer
}

// NewTransport returns a Transport using attempts tries per phase.
// A non-positive attempts selects DefaultAttempts.
func NewTransport(link Link, attempts int) *Transport {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Transport{link: link, attempts: attempts}
}

// SetObserver installs o; nil disables notifications.
func (t *Transport) SetObserver(o Observer) { t.obs = o }

// Attempts returns the per-phase attempt budget.
func (t *Transport) Attempts() int { return t.attempts }

// WriteRegister writes data starting at reg of the slave at addr.
func (t *Transport) WriteRegister(addr uint16, reg byte, data []byte) error {
	if err := t.phase(OpWrite, PhaseHeader, addr, reg, func() error {
		return t.link.TransmitHeader(addr, reg)
	}); err != nil {
		return err
	}
	return t.phase(OpWrite, PhaseData, addr, reg, func() error {
		return t.link.Transmit(addr, data)
	})
}

// ReadRegister fills buf starting at reg of the slave at addr.
func (t *Transport) ReadRegister(addr uint16, reg byte, buf []byte) error {
	if err := t.phase(OpRead, PhaseHeader, addr, reg, func() error {
		return t.link.TransmitHeader(addr, reg)
	}); err != nil {
		return err
	}
	return t.phase(OpRead, PhaseData, addr, reg, func() error {
		return t.link.Receive(addr, buf)
	})
}

// WriteReg8 is WriteRegister for a single byte.
func (t *Transport) WriteReg8(addr uint16, reg, v byte) error {
	return t.WriteRegister(addr, reg, []byte{v})
}

// ReadReg8 is ReadRegister for a single byte.
func (t *Transport) ReadReg8(addr uint16, reg byte) (byte, error) {
	var b [1]byte
	if err := t.ReadRegister(addr, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (t *Transport) phase(op string, ph Phase, addr uint16, reg byte, try func() error) error {
	var err error
	for n := 1; n <= t.attempts; n++ {
		if err = try(); err == nil {
			if n > 1 {
				log.Debugf("bus: %s 0x%02X reg 0x%02X: %s phase ok after %d attempts", op, addr, reg, ph, n)
			}
			return nil
		}
		if n < t.attempts && t.obs != nil {
			t.obs.Retry(op, ph)
		}
	}
	if t.obs != nil {
		t.obs.Exhausted(op, ph)
	}
	terr := &TransportError{Op: op, Phase: ph, Addr: addr, Reg: reg, Attempts: t.attempts, Err: err}
	log.Warn(terr.Error())
	return terr
}

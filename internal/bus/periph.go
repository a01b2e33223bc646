// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphLink maps the two transaction phases onto periph I2C transfers.
//
// The header phase writes the register number on its own, which latches the
// device's register pointer and proves the slave acknowledges its address.
// A read then clocks in the payload with a plain read transfer. A write
// resends the latched register together with the payload, since the device
// treats the first byte of every write as the register number.
type PeriphLink struct {
	bus i2c.Bus
	reg byte
}

// NewPeriphLink wraps an already opened bus.
func NewPeriphLink(b i2c.Bus) *PeriphLink {
	return &PeriphLink{bus: b}
}

func (l *PeriphLink) TransmitHeader(addr uint16, reg byte) error {
	l.reg = reg
	return l.bus.Tx(addr, []byte{reg}, nil)
}

func (l *PeriphLink) Transmit(addr uint16, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, l.reg)
	w = append(w, data...)
	return l.bus.Tx(addr, w, nil)
}

func (l *PeriphLink) Receive(addr uint16, buf []byte) error {
	return l.bus.Tx(addr, nil, buf)
}

func (l *PeriphLink) String() string { return l.bus.String() }

// Open initializes the periph host drivers and opens the named I2C bus.
// An empty name selects the first bus found.
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return b, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

// Sink receives every reading the producer takes.
type Sink interface {
	Show(r orientation.Reading) error
}

// FormatLines renders the four fixed-width status lines: roll and pitch in
// degrees, then roll and pitch rates in °/s.
func FormatLines(r orientation.Reading) [4]string {
	return [4]string{
		fmt.Sprintf("Rg:%5.3f ", r.RollDeg),
		fmt.Sprintf("Pg:%5.3f ", r.PitchDeg),
		fmt.Sprintf("wRg:%5.3f", r.RollRateDeg),
		fmt.Sprintf("wPg:%5.3f", r.PitchRateDeg),
	}
}

// ConsoleSink writes the status lines as one line of text.
type ConsoleSink struct {
	W io.Writer
}

func (c ConsoleSink) Show(r orientation.Reading) error {
	l := FormatLines(r)
	_, err := fmt.Fprintln(c.W, strings.TrimSpace(strings.Join(l[:], " ")))
	return err
}

// Throttle forwards at most one reading per Every to Sink.
type Throttle struct {
	Sink  Sink
	Every time.Duration

	now  func() time.Time
	last time.Time
}

func (t *Throttle) Show(r orientation.Reading) error {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	ts := now()
	if !t.last.IsZero() && ts.Sub(t.last) < t.Every {
		return nil
	}
	t.last = ts
	return t.Sink.Show(r)
}

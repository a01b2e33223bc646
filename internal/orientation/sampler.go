// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"

	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

// Reader reads consecutive device registers; *sensors.Device implements it.
type Reader interface {
	Read(reg byte, buf []byte) error
}

// Sampler turns one accelerometer burst and one gyroscope burst into a
// calibrated Reading per call.
type Sampler struct {
	r     Reader
	scale imu.Scale
	off   Offsets

	buf  [6]byte
	last imu.IMURaw
}

// NewSampler returns a Sampler using scale and the offsets from calibration.
func NewSampler(r Reader, scale imu.Scale, off Offsets) *Sampler {
	return &Sampler{r: r, scale: scale, off: off}
}

// Offsets returns the offsets subtracted from every reading.
func (s *Sampler) Offsets() Offsets { return s.off }

// LastRaw returns the raw counts behind the most recent successful Sample.
func (s *Sampler) LastRaw() imu.IMURaw { return s.last }

// Sample reads both sensors and returns the calibrated reading.
func (s *Sampler) Sample() (Reading, error) {
	if err := s.r.Read(sensors.RegRawAccel, s.buf[:]); err != nil {
		return Reading{}, fmt.Errorf("accel burst: %w", err)
	}
	a := imu.Triple(s.buf[:])

	if err := s.r.Read(sensors.RegRawGyro, s.buf[:]); err != nil {
		return Reading{}, fmt.Errorf("gyro burst: %w", err)
	}
	g := imu.Triple(s.buf[:])

	s.last = imu.IMURaw{Ax: a[0], Ay: a[1], Az: a[2], Gx: g[0], Gy: g[1], Gz: g[2]}
	return Compute(s.last, s.scale, s.off), nil
}

// Next implements Source.
func (s *Sampler) Next() (Reading, error) { return s.Sample() }

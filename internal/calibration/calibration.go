// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates zero-offsets for a stationary, level device.
//
// For each sensor the first Warmup samples per axis are discarded while the
// internal filters settle, then Samples further samples per axis are averaged.
// Accelerometer samples are averaged as tilt angles in radians; gyroscope
// samples are averaged directly in °/s. There is no motion detection: moving
// the device during the window silently biases the result.
package calibration

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

const (
	DefaultWarmup    = 10
	DefaultSamples   = 100
	DefaultReadDelay = time.Millisecond
)

// Params controls the statistical procedure.
type Params struct {
	Warmup    int           // discarded samples per axis
	Samples   int           // averaged samples per axis
	ReadDelay time.Duration // wait before every per-axis read
}

// DefaultParams is 10 discarded and 100 averaged samples, 1 ms apart.
var DefaultParams = Params{Warmup: DefaultWarmup, Samples: DefaultSamples, ReadDelay: DefaultReadDelay}

// ErrCalibration matches every *Error via errors.Is.
var ErrCalibration = errors.New("calibration: aborted")

// Error reports the per-axis read that ended calibration.
type Error struct {
	Channel string // "accel" or "gyro"
	Axis    string
	Sample  int // 1-based, warm-up included
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("calibration: %s %s sample %d: %v", e.Channel, e.Axis, e.Sample, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrCalibration, e.Err} }

// Reader reads consecutive device registers; *sensors.Device implements it.
type Reader interface {
	Read(reg byte, buf []byte) error
}

type axis struct {
	name string
	reg  byte
}

var (
	accelAxes = [3]axis{{"x", sensors.RegRawAccelX}, {"y", sensors.RegRawAccelY}, {"z", sensors.RegRawAccelZ}}
	gyroAxes  = [3]axis{{"x", sensors.RegRawGyroX}, {"y", sensors.RegRawGyroY}, {"z", sensors.RegRawGyroZ}}
)

// Run computes the offsets. It must run once, after a successful bring-up,
// with the device at rest. Reads use the bounded retry of the underlying
// transport; a read that still fails aborts with an *Error.
func Run(r Reader, scale imu.Scale, p Params, delay bus.Sleeper) (orientation.Offsets, error) {
	if p.Warmup < 0 || p.Samples <= 0 {
		return orientation.Offsets{}, fmt.Errorf("calibration: invalid params %+v", p)
	}
	if delay == nil {
		delay = bus.WallClock
	}
	c := &run{r: r, p: p, delay: delay}

	roll, pitch, yaw, err := c.accel(scale.Accel)
	if err != nil {
		return orientation.Offsets{}, err
	}
	gx, gy, gz, err := c.gyro(scale.Gyro)
	if err != nil {
		return orientation.Offsets{}, err
	}

	off := orientation.NewOffsets(roll, pitch, yaw, gx, gy, gz)
	log.Printf("calibration: angle offsets roll=%.3f° pitch=%.3f° yaw=%.3f°", off.RollDeg, off.PitchDeg, off.YawDeg)
	log.Printf("calibration: rate offsets roll=%.3f°/s pitch=%.3f°/s yaw=%.3f°/s", off.RollRateDeg, off.PitchRateDeg, off.YawRateDeg)
	return off, nil
}

type run struct {
	r     Reader
	p     Params
	delay bus.Sleeper
	buf   [2]byte
}

func (c *run) accel(lsb float64) (roll, pitch, yaw float64, err error) {
	var sum [3]float64
	err = c.collect("accel", accelAxes, func(v [3]int16) {
		r, p, y := orientation.TiltAngles(float64(v[0])/lsb, float64(v[1])/lsb, float64(v[2])/lsb)
		sum[0] += r
		sum[1] += p
		sum[2] += y
	})
	n := float64(c.p.Samples)
	return sum[0] / n, sum[1] / n, sum[2] / n, err
}

func (c *run) gyro(lsb float64) (x, y, z float64, err error) {
	var sum [3]float64
	err = c.collect("gyro", gyroAxes, func(v [3]int16) {
		sum[0] += float64(v[0]) / lsb
		sum[1] += float64(v[1]) / lsb
		sum[2] += float64(v[2]) / lsb
	})
	n := float64(c.p.Samples)
	return sum[0] / n, sum[1] / n, sum[2] / n, err
}

// collect discards the warm-up samples and hands every averaged sample to add.
func (c *run) collect(channel string, axes [3]axis, add func([3]int16)) error {
	log.Debugf("calibration: %s warm-up %d, averaging %d", channel, c.p.Warmup, c.p.Samples)
	for i := 1; i <= c.p.Warmup+c.p.Samples; i++ {
		var v [3]int16
		for k, a := range axes {
			x, err := c.readAxis(a.reg)
			if err != nil {
				return &Error{Channel: channel, Axis: a.name, Sample: i, Err: err}
			}
			v[k] = x
		}
		if i > c.p.Warmup {
			add(v)
		}
	}
	return nil
}

func (c *run) readAxis(reg byte) (int16, error) {
	c.delay.Sleep(c.p.ReadDelay)
	if err := c.r.Read(reg, c.buf[:]); err != nil {
		return 0, err
	}
	return imu.Int16BE(c.buf[:]), nil
}

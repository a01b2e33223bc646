// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/bus/bustest"
	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

var scale = imu.ScaleFor(imu.Accel2G, imu.Gyro250DPS)

func put(d *bustest.Device, reg byte, v int16) {
	d.Regs[reg] = byte(uint16(v) >> 8)
	d.Regs[reg+1] = byte(v)
}

// stillDevice returns a fake whose registers hold one constant sample.
func stillDevice(t *testing.T, raw imu.IMURaw) (*sensors.Device, *bustest.Device, *bustest.Sleeper) {
	t.Helper()
	fake := bustest.NewDevice(sensors.DefaultAddress)
	put(fake, sensors.RegRawAccelX, raw.Ax)
	put(fake, sensors.RegRawAccelY, raw.Ay)
	put(fake, sensors.RegRawAccelZ, raw.Az)
	put(fake, sensors.RegRawGyroX, raw.Gx)
	put(fake, sensors.RegRawGyroY, raw.Gy)
	put(fake, sensors.RegRawGyroZ, raw.Gz)
	sl := &bustest.Sleeper{}
	dev, err := sensors.New(bus.NewTransport(fake, bus.DefaultAttempts), "test", nil, sl)
	if err != nil {
		t.Fatalf("sensors.New: %v", err)
	}
	return dev, fake, sl
}

func TestRun_ConstantSamples(t *testing.T) {
	dev, fake, sl := stillDevice(t, imu.IMURaw{Az: 16384, Gx: 131, Gy: -262, Gz: 0})

	off, err := Run(dev, scale, DefaultParams, sl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if off.RollRad != 0 || off.PitchRad != 0 {
		t.Fatalf("level angle offsets roll=%v pitch=%v, want 0", off.RollRad, off.PitchRad)
	}
	if math.Abs(off.YawRad-math.Pi/2) > 1e-12 {
		t.Fatalf("yaw offset = %v, want π/2", off.YawRad)
	}
	if off.RollRateDeg != 1 || off.PitchRateDeg != -2 || off.YawRateDeg != 0 {
		t.Fatalf("rate offsets = %v %v %v, want 1 -2 0", off.RollRateDeg, off.PitchRateDeg, off.YawRateDeg)
	}
	if math.Abs(off.RollRateRad-math.Pi/180) > 1e-15 {
		t.Fatalf("roll rate rad = %v", off.RollRateRad)
	}
	if math.Abs(off.YawDeg-90) > 1e-9 {
		t.Fatalf("yaw deg = %v, want 90", off.YawDeg)
	}

	wantReads := (DefaultWarmup + DefaultSamples) * 3 * 2
	if len(fake.ReadRegs) != wantReads {
		t.Fatalf("reads = %d, want %d", len(fake.ReadRegs), wantReads)
	}
	if len(sl.Delays) != wantReads || sl.Total() != time.Duration(wantReads)*DefaultReadDelay {
		t.Fatalf("delays: %d totalling %v", len(sl.Delays), sl.Total())
	}
}

func TestRun_WarmupDiscardedAndMeanTaken(t *testing.T) {
	dev, fake, sl := stillDevice(t, imu.IMURaw{Az: 16384})

	// Gyro X: warm-up samples read 1000 counts, then 131 and 393 alternate,
	// so the mean of the averaged window is exactly 2 °/s.
	n := 0
	fake.Feed = func(reg byte, buf []byte) {
		if reg != sensors.RegRawGyroX {
			copy(buf, fake.Regs[reg:])
			return
		}
		n++
		v := int16(1000)
		switch {
		case n <= DefaultWarmup:
		case n%2 == 0:
			v = 131
		default:
			v = 393
		}
		buf[0], buf[1] = byte(uint16(v)>>8), byte(v)
	}

	off, err := Run(dev, scale, DefaultParams, sl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != DefaultWarmup+DefaultSamples {
		t.Fatalf("gyro X reads = %d", n)
	}
	if off.RollRateDeg != 2 {
		t.Fatalf("roll rate offset = %v, want 2", off.RollRateDeg)
	}
}

func TestRun_SmallParams(t *testing.T) {
	dev, fake, sl := stillDevice(t, imu.IMURaw{Ax: 100, Ay: 200, Az: 16000, Gx: 7})

	p := Params{Warmup: 1, Samples: 3}
	off, err := Run(dev, scale, p, sl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(fake.ReadRegs); got != (1+3)*6 {
		t.Fatalf("reads = %d, want 24", got)
	}
	wantRoll, _, _ := orientation.TiltAngles(100.0/16384, 200.0/16384, 16000.0/16384)
	if math.Abs(off.RollRad-wantRoll) > 1e-12 {
		t.Fatalf("roll offset = %v, want %v", off.RollRad, wantRoll)
	}
}

func TestRun_BoundedFailure(t *testing.T) {
	dev, fake, sl := stillDevice(t, imu.IMURaw{Az: 16384})
	fake.FailReadsAfter = 5

	_, err := Run(dev, scale, DefaultParams, sl)
	if !errors.Is(err, ErrCalibration) || !errors.Is(err, bus.ErrTransport) {
		t.Fatalf("want calibration + transport error, got %v", err)
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("want *Error, got %T", err)
	}
	if cerr.Channel != "accel" || cerr.Axis != "z" || cerr.Sample != 2 {
		t.Fatalf("error location = %s %s #%d", cerr.Channel, cerr.Axis, cerr.Sample)
	}
}

func TestRun_InvalidParams(t *testing.T) {
	dev, _, sl := stillDevice(t, imu.IMURaw{})
	for _, p := range []Params{{Warmup: 1, Samples: 0}, {Warmup: -1, Samples: 10}} {
		if _, err := Run(dev, scale, p, sl); err == nil {
			t.Errorf("params %+v: expected error", p)
		}
	}
}

func TestRun_SamplesCancelAfterCalibration(t *testing.T) {
	raw := imu.IMURaw{Ax: 1200, Ay: -800, Az: 16000, Gx: 50, Gy: -20, Gz: 7}
	dev, _, sl := stillDevice(t, raw)

	off, err := Run(dev, scale, DefaultParams, sl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := orientation.NewSampler(dev, dev.Scale(), off)
	r, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if s.LastRaw() != raw {
		t.Fatalf("raw = %+v, want %+v", s.LastRaw(), raw)
	}

	const eps = 1e-9
	for name, v := range map[string]float64{
		"roll": r.RollRad, "pitch": r.PitchRad, "yaw": r.YawRad,
		"roll°": r.RollDeg, "pitch°": r.PitchDeg, "yaw°": r.YawDeg,
		"roll rate": r.RollRateDeg, "pitch rate": r.PitchRateDeg, "yaw rate": r.YawRateDeg,
		"roll rate rad": r.RollRateRad, "pitch rate rad": r.PitchRateRad, "yaw rate rad": r.YawRateRad,
	} {
		if math.Abs(v) > eps {
			t.Errorf("%s = %g, want ~0", name, v)
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/bus/bustest"
	"github.com/relabs-tech/tilt_computer/internal/config"
	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

type published struct {
	topic string
	v     any
}

type fakePublisher struct{ msgs []published }

func (f *fakePublisher) Publish(topic string, v any) error {
	f.msgs = append(f.msgs, published{topic, v})
	return nil
}

type fakeSource struct {
	r   orientation.Reading
	err error
}

func (f fakeSource) Next() (orientation.Reading, error) { return f.r, f.err }

func testConfig() *config.Config {
	return &config.Config{
		IMUI2CAddr:       sensors.DefaultAddress,
		BusRetryAttempts: bus.DefaultAttempts,
		IMUDLPFConfig:    4,
		IMUSampleRateDiv: 9,
		CalWarmupSamples: 2,
		CalSamples:       5,
		CalReadDelayMS:   1,
		InitAttempts:     3,
		TopicCalibration: "tilt/calibration",
	}
}

func TestProducerStep_PublishesAndShows(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}
	sink := &countingSink{}
	raw := imu.IMURaw{Az: 16384}
	p := &Producer{
		Source:           fakeSource{r: sample},
		Raw:              func() imu.IMURaw { return raw },
		Pub:              pub,
		Sinks:            []Sink{sink},
		Metrics:          m,
		TopicOrientation: "tilt/orientation",
		TopicIMURaw:      "tilt/imu",
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(pub.msgs) != 2 || pub.msgs[0].topic != "tilt/orientation" || pub.msgs[1].topic != "tilt/imu" {
		t.Fatalf("published = %+v", pub.msgs)
	}
	if pub.msgs[0].v != sample || pub.msgs[1].v != raw {
		t.Fatalf("payloads = %+v", pub.msgs)
	}
	if sink.n != 1 {
		t.Fatalf("sink saw %d readings", sink.n)
	}
	if got := testutil.ToFloat64(m.samples); got != 1 {
		t.Fatalf("samples = %v", got)
	}
	if got := testutil.ToFloat64(m.lastRoll); got != sample.RollDeg {
		t.Fatalf("roll gauge = %v", got)
	}
}

func TestProducerStep_SampleError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}
	sink := &countingSink{}
	boom := errors.New("boom")
	p := &Producer{Source: fakeSource{err: boom}, Pub: pub, Sinks: []Sink{sink}, Metrics: m}

	if err := p.Step(); !errors.Is(err, boom) {
		t.Fatalf("Step err = %v", err)
	}
	if len(pub.msgs) != 0 || sink.n != 0 {
		t.Fatalf("failed sample was distributed: %d msgs, %d shows", len(pub.msgs), sink.n)
	}
	if got := testutil.ToFloat64(m.sampleErrors); got != 1 {
		t.Fatalf("sample errors = %v", got)
	}
}

func TestStartIMU_CalibratesAndPublishesOffsets(t *testing.T) {
	fake := bustest.NewDevice(sensors.DefaultAddress)
	fake.Regs[sensors.RegRawAccelZ] = 0x40 // 1 g on Z
	fake.Regs[sensors.RegRawGyroX+1] = 131 // 1 °/s roll rate
	fake.Regs[sensors.RegWhoAmI] = sensors.DeviceID
	m := NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}
	sleeper := &bustest.Sleeper{}

	dev, sampler, err := startIMU(fake, "test", testConfig(), m, pub, sleeper)
	if err != nil {
		t.Fatalf("startIMU: %v", err)
	}
	if dev.Power() != sensors.Awake {
		t.Fatalf("power = %v after start", dev.Power())
	}
	if got := testutil.ToFloat64(m.initAttempts); got != 1 {
		t.Fatalf("init attempts = %v", got)
	}

	if len(pub.msgs) != 1 || pub.msgs[0].topic != "tilt/calibration" {
		t.Fatalf("published = %+v", pub.msgs)
	}
	off := pub.msgs[0].v.(orientation.Offsets)
	if math.Abs(off.YawRad-math.Pi/2) > 1e-9 || math.Abs(off.RollRateDeg-1) > 1e-12 {
		t.Fatalf("offsets = %+v", off)
	}

	r, err := sampler.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for name, v := range map[string]float64{"roll": r.RollRad, "pitch": r.PitchRad, "yaw": r.YawRad, "roll rate": r.RollRateDeg} {
		if math.Abs(v) > 1e-9 {
			t.Errorf("%s = %v after calibration, want 0", name, v)
		}
	}
}

func TestStartIMU_RestartsWholeBringUp(t *testing.T) {
	fake := bustest.NewDevice(sensors.DefaultAddress)
	fake.FailWrites[sensors.RegConfig] = true
	cfg := testConfig()
	cfg.BusRetryAttempts = 2
	m := NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}

	_, _, err := startIMU(fake, "test", cfg, m, pub, &bustest.Sleeper{})
	if !errors.Is(err, sensors.ErrConfig) || !errors.Is(err, bus.ErrTransport) {
		t.Fatalf("err = %v, want configuration abort", err)
	}

	resets := 0
	for _, w := range fake.Writes {
		if w.Reg == sensors.RegPwrMgmt1 && w.Data[0] == sensors.BitHReset {
			resets++
		}
	}
	if resets != cfg.InitAttempts {
		t.Fatalf("resets = %d, want %d", resets, cfg.InitAttempts)
	}
	if got := fake.WriteAttempts[sensors.RegConfig]; got != cfg.InitAttempts*cfg.BusRetryAttempts {
		t.Fatalf("CONFIG write attempts = %d", got)
	}
	if fake.WriteAttempts[sensors.RegSampleRateDiv] != 0 {
		t.Fatal("sample rate written after aborted configuration")
	}
	if got := testutil.ToFloat64(m.initAttempts); got != float64(cfg.InitAttempts) {
		t.Fatalf("init attempts = %v", got)
	}
	if got := testutil.ToFloat64(m.busExhausted.WithLabelValues(bus.OpWrite, "data")); got != float64(cfg.InitAttempts) {
		t.Fatalf("exhausted = %v", got)
	}
	if got := testutil.ToFloat64(m.busRetries.WithLabelValues(bus.OpWrite, "data")); got != float64(cfg.InitAttempts) {
		t.Fatalf("retries = %v", got)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("offsets published without calibration")
	}
}

func TestStartIMU_CalibrationFailurePutsDeviceToSleep(t *testing.T) {
	fake := bustest.NewDevice(sensors.DefaultAddress)
	// WHO_AM_I is the only read during bring-up.
	fake.FailReadsAfter = 1
	cfg := testConfig()
	cfg.BusRetryAttempts = 1

	_, _, err := startIMU(fake, "test", cfg, nil, nil, &bustest.Sleeper{})
	if err == nil {
		t.Fatal("expected calibration error")
	}
	last := fake.Writes[len(fake.Writes)-1]
	if last.Reg != sensors.RegPwrMgmt1 || last.Data[0] != sensors.BitSleep {
		t.Fatalf("last write = %+v, want SLEEP", last)
	}
}

func TestDeviceOptsAndCalibrationParams(t *testing.T) {
	cfg := testConfig()
	cfg.IMUAccelRange = 3
	cfg.IMUGyroRange = 1
	o := DeviceOpts(cfg)
	if o.AccelRange != imu.Accel16G || o.GyroRange != imu.Gyro500DPS || o.DLPF != sensors.DLPF20Hz || o.SampleRateDiv != 9 {
		t.Fatalf("opts = %+v", o)
	}
	p := CalibrationParams(cfg)
	if p.Warmup != 2 || p.Samples != 5 || p.ReadDelay.Milliseconds() != 1 {
		t.Fatalf("params = %+v", p)
	}
}

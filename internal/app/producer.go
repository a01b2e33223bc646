// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/calibration"
	"github.com/relabs-tech/tilt_computer/internal/config"
	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

// Producer takes one reading per tick and fans it out to MQTT and the sinks.
type Producer struct {
	Source orientation.Source
	// Raw returns the counts behind the last reading; nil when the source
	// has no hardware behind it.
	Raw     func() imu.IMURaw
	Pub     Publisher
	Sinks   []Sink
	Metrics *Metrics

	TopicOrientation string
	TopicIMURaw      string
}

// Step takes and distributes one reading. Only a failed sample is returned;
// publish and sink errors are logged.
func (p *Producer) Step() error {
	r, err := p.Source.Next()
	if err != nil {
		if p.Metrics != nil {
			p.Metrics.sampleErrors.Inc()
		}
		return fmt.Errorf("sample: %w", err)
	}
	if p.Metrics != nil {
		p.Metrics.samples.Inc()
		p.Metrics.lastRoll.Set(r.RollDeg)
		p.Metrics.lastPitch.Set(r.PitchDeg)
	}

	if p.Pub != nil {
		if err := p.Pub.Publish(p.TopicOrientation, r); err != nil {
			log.Printf("publish error (orientation): %v", err)
		}
		if p.Raw != nil {
			if err := p.Pub.Publish(p.TopicIMURaw, p.Raw()); err != nil {
				log.Printf("publish error (imu raw): %v", err)
			}
		}
	}

	for _, s := range p.Sinks {
		if err := s.Show(r); err != nil {
			log.Printf("sink error: %v", err)
		}
	}
	return nil
}

// Run calls Step every interval until ctx is done.
func (p *Producer) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	log.Printf("sampling every %s", every)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Step(); err != nil {
				log.Warnf("%v", err)
			}
		}
	}
}

// DeviceOpts maps the IMU keys of cfg onto sensor options.
func DeviceOpts(cfg *config.Config) sensors.Opts {
	return sensors.Opts{
		Addr:          cfg.IMUI2CAddr,
		AccelRange:    imu.AccelRange(cfg.IMUAccelRange),
		GyroRange:     imu.GyroRange(cfg.IMUGyroRange),
		DLPF:          sensors.DLPF(cfg.IMUDLPFConfig),
		SampleRateDiv: cfg.IMUSampleRateDiv,
	}
}

// CalibrationParams maps the CAL_* keys of cfg.
func CalibrationParams(cfg *config.Config) calibration.Params {
	return calibration.Params{
		Warmup:    cfg.CalWarmupSamples,
		Samples:   cfg.CalSamples,
		ReadDelay: time.Duration(cfg.CalReadDelayMS) * time.Millisecond,
	}
}

// bringUp runs the full Init sequence up to attempts times. A failed attempt
// is never resumed; the next one starts again from the reset.
func bringUp(dev *sensors.Device, attempts int, m *Metrics) error {
	var err error
	for n := 1; n <= attempts; n++ {
		if m != nil {
			m.initAttempts.Inc()
		}
		if err = dev.Init(); err == nil {
			return nil
		}
		log.Warnf("imu: bring-up attempt %d/%d failed: %v", n, attempts, err)
	}
	return fmt.Errorf("imu: bring-up failed after %d attempts: %w", attempts, err)
}

// startIMU brings the device up, calibrates it and publishes the offsets.
// On success the device is awake and the caller owns putting it to sleep.
func startIMU(link bus.Link, channel string, cfg *config.Config, m *Metrics, pub Publisher, delay bus.Sleeper) (*sensors.Device, *orientation.Sampler, error) {
	tr := bus.NewTransport(link, cfg.BusRetryAttempts)
	if m != nil {
		tr.SetObserver(m)
	}

	opts := DeviceOpts(cfg)
	dev, err := sensors.New(tr, channel, &opts, delay)
	if err != nil {
		return nil, nil, err
	}
	if err := bringUp(dev, cfg.InitAttempts, m); err != nil {
		return nil, nil, err
	}

	log.Println("imu: calibrating, keep the device still and level")
	off, err := calibration.Run(dev, dev.Scale(), CalibrationParams(cfg), delay)
	if err != nil {
		if perr := dev.SetPower(false); perr != nil {
			log.Warnf("imu: sleep after failed calibration: %v", perr)
		}
		return nil, nil, err
	}
	if pub != nil {
		if err := pub.Publish(cfg.TopicCalibration, off); err != nil {
			log.Printf("publish error (calibration): %v", err)
		}
	}
	return dev, orientation.NewSampler(dev, dev.Scale(), off), nil
}

// RunProducer is the main loop: bring-up, calibration, then sampling until
// ctx is cancelled, after which the device is put to sleep. With mock set no
// sensor is touched and readings are synthetic.
func RunProducer(ctx context.Context, cfg *config.Config, mock bool) error {
	log.Println("starting tilt-computer producer")

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ServeMetrics(cfg.MetricsPort, reg)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	pub := &mqttPublisher{client: client}

	p := &Producer{
		Pub:              pub,
		Metrics:          metrics,
		TopicOrientation: cfg.TopicOrientation,
		TopicIMURaw:      cfg.TopicIMURaw,
		Sinks: []Sink{
			&Throttle{Sink: ConsoleSink{W: os.Stdout}, Every: time.Duration(cfg.ConsoleLogInterval) * time.Millisecond},
		},
	}

	var b i2c.BusCloser
	if !mock || cfg.DisplayEnabled {
		if b, err = bus.Open(cfg.I2CBus); err != nil {
			return err
		}
		defer b.Close()
		log.Printf("opened I2C bus %s", b)
	}

	if cfg.DisplayEnabled {
		if disp, err := NewDisplay(b); err != nil {
			log.Warnf("display disabled: %v", err)
		} else {
			defer disp.Halt()
			p.Sinks = append(p.Sinks, &Throttle{Sink: disp, Every: time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond})
		}
	}

	if mock {
		log.Println("using mock orientation source")
		p.Source = orientation.NewMockSource()
	} else {
		dev, sampler, err := startIMU(bus.NewPeriphLink(b), b.String(), cfg, metrics, pub, bus.WallClock)
		if err != nil {
			return err
		}
		defer func() {
			if err := dev.SetPower(false); err != nil {
				log.Warnf("imu: sleep on shutdown: %v", err)
				return
			}
			log.Println("imu: asleep")
		}()
		p.Source = sampler
		p.Raw = sampler.LastRaw
	}

	err = p.Run(ctx, time.Duration(cfg.IMUSampleInterval)*time.Millisecond)
	log.Println("producer: shutting down")
	return err
}

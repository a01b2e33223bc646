// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/imu"
)

// Bring-up timing.
const (
	PowerUpDelay = 100 * time.Millisecond // after reset and before the second wake
	RegUpDelay   = 5 * time.Millisecond   // after every wake write
	SettleDelay  = 1 * time.Millisecond   // before every configuration write
)

// PowerState is the last acknowledged state of the SLEEP bit.
type PowerState int

const (
	Sleeping PowerState = iota
	Awake
)

func (p PowerState) String() string {
	if p == Awake {
		return "awake"
	}
	return "sleeping"
}

// Opts selects what Configure writes to the device.
type Opts struct {
	Addr          uint16
	AccelRange    imu.AccelRange
	GyroRange     imu.GyroRange
	DLPF          DLPF
	SampleRateDiv byte
}

// DefaultOpts is ±2g, ±250°/s, 20 Hz DLPF, 100 Hz output.
var DefaultOpts = Opts{
	Addr:          DefaultAddress,
	AccelRange:    imu.Accel2G,
	GyroRange:     imu.Gyro250DPS,
	DLPF:          DLPF20Hz,
	SampleRateDiv: SampleRateDivFor(defaultRateHz),
}

// ErrConfig matches every *ConfigError via errors.Is.
var ErrConfig = errors.New("sensors: configuration aborted")

// ConfigError reports the configuration write that aborted Configure.
// Writes before it are not rolled back; the device configuration must be
// treated as invalid until the whole bring-up is run again.
type ConfigError struct {
	Step string
	Reg  byte
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configure %s (reg 0x%02X): %v", e.Step, e.Reg, e.Err)
}

func (e *ConfigError) Unwrap() []error { return []error{ErrConfig, e.Err} }

// Device is the handle to one MPU-6050. It owns its Transport exclusively.
type Device struct {
	Channel string // bus the device hangs off, for logs
	Addr    uint16

	tr    *bus.Transport
	delay bus.Sleeper
	opts  Opts
	power PowerState
}

// New returns a handle; it does not touch the bus. A nil opts selects
// DefaultOpts and a nil delay selects bus.WallClock.
func New(tr *bus.Transport, channel string, opts *Opts, delay bus.Sleeper) (*Device, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	if !o.AccelRange.Valid() {
		return nil, fmt.Errorf("invalid accelerometer range %d", o.AccelRange)
	}
	if !o.GyroRange.Valid() {
		return nil, fmt.Errorf("invalid gyroscope range %d", o.GyroRange)
	}
	if o.DLPF > DLPF2100HzNoLPF {
		return nil, fmt.Errorf("invalid DLPF config %d", o.DLPF)
	}
	if delay == nil {
		delay = bus.WallClock
	}
	return &Device{Channel: channel, Addr: o.Addr, tr: tr, delay: delay, opts: o, power: Sleeping}, nil
}

// Power returns the last acknowledged power state.
func (d *Device) Power() PowerState { return d.power }

// Opts returns the configuration this handle writes.
func (d *Device) Opts() Opts { return d.opts }

// Scale returns the sensitivities matching the ranges Configure writes.
func (d *Device) Scale() imu.Scale { return imu.ScaleFor(d.opts.AccelRange, d.opts.GyroRange) }

// Read fills buf starting at reg.
func (d *Device) Read(reg byte, buf []byte) error {
	return d.tr.ReadRegister(d.Addr, reg, buf)
}

// Write writes one byte to reg.
func (d *Device) Write(reg, v byte) error {
	return d.tr.WriteReg8(d.Addr, reg, v)
}

// Init resets, wakes and configures the device.
//
// A reset leaves the SLEEP bit in an OTP-dependent state, so the wake write is
// applied twice, PowerUpDelay apart.
func (d *Device) Init() error {
	log.Printf("imu: bring-up on %s addr 0x%02X", d.Channel, d.Addr)

	if err := d.Write(RegPwrMgmt1, BitHReset); err != nil {
		return fmt.Errorf("imu: reset: %w", err)
	}
	d.power = Sleeping
	log.Debugf("imu: reset acknowledged")
	d.delay.Sleep(PowerUpDelay)

	if err := d.SetPower(true); err != nil {
		return fmt.Errorf("imu: wake: %w", err)
	}
	d.delay.Sleep(PowerUpDelay)
	if err := d.SetPower(true); err != nil {
		return fmt.Errorf("imu: wake (second): %w", err)
	}
	log.Debugf("imu: awake")

	if id, err := d.WhoAmI(); err != nil {
		log.Warnf("imu: WHO_AM_I read failed: %v", err)
	} else if id != DeviceID {
		log.Warnf("imu: WHO_AM_I = 0x%02X, expected 0x%02X", id, DeviceID)
	}

	if err := d.Configure(); err != nil {
		return fmt.Errorf("imu: %w", err)
	}
	log.Printf("imu: configured accel %s, gyro %s, DLPF %d, SMPLRT_DIV %d",
		d.opts.AccelRange, d.opts.GyroRange, d.opts.DLPF, d.opts.SampleRateDiv)
	return nil
}

// Configure writes the full-scale ranges, the DLPF bandwidth and the sample
// rate divider, in that order, and stops at the first failed write.
func (d *Device) Configure() error {
	steps := []struct {
		name string
		reg  byte
		val  byte
	}{
		{"accel range", RegAccelConfig, byte(d.opts.AccelRange) << FSRShift},
		{"gyro range", RegGyroConfig, byte(d.opts.GyroRange) << FSRShift},
		{"dlpf", RegConfig, byte(d.opts.DLPF)},
		{"sample rate", RegSampleRateDiv, d.opts.SampleRateDiv},
	}
	for _, s := range steps {
		d.delay.Sleep(SettleDelay)
		if err := d.Write(s.reg, s.val); err != nil {
			return &ConfigError{Step: s.name, Reg: s.reg, Err: err}
		}
	}
	return nil
}

// SetPower clears or sets the SLEEP bit. Only waking waits RegUpDelay.
func (d *Device) SetPower(on bool) error {
	v := byte(BitSleep)
	if on {
		v = 0
	}
	if err := d.Write(RegPwrMgmt1, v); err != nil {
		return err
	}
	if !on {
		d.power = Sleeping
		return nil
	}
	d.power = Awake
	d.delay.Sleep(RegUpDelay)
	return nil
}

// WhoAmI reads the identity register.
func (d *Device) WhoAmI() (byte, error) {
	return d.tr.ReadReg8(d.Addr, RegWhoAmI)
}

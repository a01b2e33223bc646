// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/tilt_computer/internal/imu"
)

const (
	radToDeg = 180.0 / math.Pi
	degToRad = math.Pi / 180.0
)

// Reading is one calibrated orientation sample. It is a value with no
// identity beyond the instant it was taken.
//
// Yaw is derived from the accelerometer like roll and pitch. It is a tilt of
// the Z axis, not a compass heading; the sensor cannot observe heading.
type Reading struct {
	RollRad  float64 `json:"roll_rad"`
	PitchRad float64 `json:"pitch_rad"`
	YawRad   float64 `json:"yaw_rad"`
	RollDeg  float64 `json:"roll_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	YawDeg   float64 `json:"yaw_deg"`

	RollRateRad  float64 `json:"roll_rate_rad_s"`
	PitchRateRad float64 `json:"pitch_rate_rad_s"`
	YawRateRad   float64 `json:"yaw_rate_rad_s"`
	RollRateDeg  float64 `json:"roll_rate_deg_s"`
	PitchRateDeg float64 `json:"pitch_rate_deg_s"`
	YawRateDeg   float64 `json:"yaw_rate_deg_s"`
}

// Offsets are the zero-offsets subtracted from every live reading. Angles are
// stored in radians and rates in °/s; the paired units are derived.
type Offsets struct {
	RollRad  float64 `json:"roll_rad"`
	PitchRad float64 `json:"pitch_rad"`
	YawRad   float64 `json:"yaw_rad"`
	RollDeg  float64 `json:"roll_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	YawDeg   float64 `json:"yaw_deg"`

	RollRateDeg  float64 `json:"roll_rate_deg_s"`
	PitchRateDeg float64 `json:"pitch_rate_deg_s"`
	YawRateDeg   float64 `json:"yaw_rate_deg_s"`
	RollRateRad  float64 `json:"roll_rate_rad_s"`
	PitchRateRad float64 `json:"pitch_rate_rad_s"`
	YawRateRad   float64 `json:"yaw_rate_rad_s"`
}

// NewOffsets builds Offsets from mean angles (rad) and mean rates (°/s).
func NewOffsets(rollRad, pitchRad, yawRad, rollDPS, pitchDPS, yawDPS float64) Offsets {
	return Offsets{
		RollRad:  rollRad,
		PitchRad: pitchRad,
		YawRad:   yawRad,
		RollDeg:  rollRad * radToDeg,
		PitchDeg: pitchRad * radToDeg,
		YawDeg:   yawRad * radToDeg,

		RollRateDeg:  rollDPS,
		PitchRateDeg: pitchDPS,
		YawRateDeg:   yawDPS,
		RollRateRad:  rollDPS * degToRad,
		PitchRateRad: pitchDPS * degToRad,
		YawRateRad:   yawDPS * degToRad,
	}
}

// Source is anything that can provide readings over time.
type Source interface {
	Next() (Reading, error)
}

// TiltAngles computes accelerometer tilt angles in radians from g components:
//
//	roll  = atan(ay / sqrt(ax² + az²))
//	pitch = atan(-ax / sqrt(ay² + az²))
//	yaw   = atan(az / sqrt(ax² + ay²))
//
// A level device (0, 0, 1) gives roll = pitch = 0 and yaw = π/2.
func TiltAngles(ax, ay, az float64) (roll, pitch, yaw float64) {
	roll = math.Atan(ay / math.Sqrt(ax*ax+az*az))
	pitch = math.Atan(-ax / math.Sqrt(ay*ay+az*az))
	yaw = math.Atan(az / math.Sqrt(ax*ax+ay*ay))
	return roll, pitch, yaw
}

// Compute converts one raw sample into a calibrated Reading.
func Compute(raw imu.IMURaw, scale imu.Scale, off Offsets) Reading {
	ax, ay, az := scale.AccelG([3]int16{raw.Ax, raw.Ay, raw.Az})
	roll, pitch, yaw := TiltAngles(ax, ay, az)
	roll -= off.RollRad
	pitch -= off.PitchRad
	yaw -= off.YawRad

	gx, gy, gz := scale.GyroDPS([3]int16{raw.Gx, raw.Gy, raw.Gz})
	gx -= off.RollRateDeg
	gy -= off.PitchRateDeg
	gz -= off.YawRateDeg

	return Reading{
		RollRad:  roll,
		PitchRad: pitch,
		YawRad:   yaw,
		RollDeg:  roll * radToDeg,
		PitchDeg: pitch * radToDeg,
		YawDeg:   yaw * radToDeg,

		RollRateDeg:  gx,
		PitchRateDeg: gy,
		YawRateDeg:   gz,
		RollRateRad:  gx * degToRad,
		PitchRateRad: gy * degToRad,
		YawRateRad:   gz * degToRad,
	}
}

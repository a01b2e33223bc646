// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "fmt"

// AccelRange is the ACCEL_CONFIG AFS_SEL code: 0=±2g, 1=±4g, 2=±8g, 3=±16g.
type AccelRange byte

const (
	Accel2G AccelRange = iota
	Accel4G
	Accel8G
	Accel16G
)

// GyroRange is the GYRO_CONFIG FS_SEL code: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s.
type GyroRange byte

const (
	Gyro250DPS GyroRange = iota
	Gyro500DPS
	Gyro1000DPS
	Gyro2000DPS
)

var (
	accelLSB = [...]float64{16384, 8192, 4096, 2048}
	gyroLSB  = [...]float64{131, 65.5, 32.8, 16.4}

	accelG  = [...]int{2, 4, 8, 16}
	gyroDPS = [...]int{250, 500, 1000, 2000}
)

// Valid reports whether r is one of the four encodable ranges.
func (r AccelRange) Valid() bool { return int(r) < len(accelLSB) }

// Valid reports whether r is one of the four encodable ranges.
func (r GyroRange) Valid() bool { return int(r) < len(gyroLSB) }

// Sensitivity returns LSB per g.
func (r AccelRange) Sensitivity() float64 { return accelLSB[r] }

// Sensitivity returns LSB per °/s.
func (r GyroRange) Sensitivity() float64 { return gyroLSB[r] }

func (r AccelRange) String() string {
	if !r.Valid() {
		return fmt.Sprintf("AccelRange(%d)", byte(r))
	}
	return fmt.Sprintf("±%dg", accelG[r])
}

func (r GyroRange) String() string {
	if !r.Valid() {
		return fmt.Sprintf("GyroRange(%d)", byte(r))
	}
	return fmt.Sprintf("±%d°/s", gyroDPS[r])
}

// Scale holds the conversion constants matching the ranges written to the device.
type Scale struct {
	Accel float64 // LSB per g
	Gyro  float64 // LSB per °/s
}

// ScaleFor returns the sensitivities for the given ranges.
func ScaleFor(a AccelRange, g GyroRange) Scale {
	return Scale{Accel: a.Sensitivity(), Gyro: g.Sensitivity()}
}

// AccelG converts raw counts to g.
func (s Scale) AccelG(v [3]int16) (x, y, z float64) {
	return float64(v[0]) / s.Accel, float64(v[1]) / s.Accel, float64(v[2]) / s.Accel
}

// GyroDPS converts raw counts to °/s.
func (s Scale) GyroDPS(v [3]int16) (x, y, z float64) {
	return float64(v[0]) / s.Gyro, float64(v[1]) / s.Gyro, float64(v[2]) / s.Gyro
}

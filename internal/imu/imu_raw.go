// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// IMURaw represents a single raw accelerometer + gyroscope sample in counts.
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Int16BE reassembles a register pair (high byte at the lower address, low
// byte next) into a sign-extended 16-bit value. b must hold at least 2 bytes.
func Int16BE(b []byte) int16 {
	return int16(uint16(b[0])<<8 | uint16(b[1]))
}

// Triple splits a 6-byte burst into three axis values, X first.
func Triple(b []byte) [3]int16 {
	return [3]int16{Int16BE(b[0:2]), Int16BE(b[2:4]), Int16BE(b[4:6])}
}

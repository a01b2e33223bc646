// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "testing"

func TestInt16BE(t *testing.T) {
	tests := []struct {
		hi, lo byte
		want   int16
	}{
		{0x80, 0x00, -32768},
		{0x7F, 0xFF, 32767},
		{0x00, 0x01, 1},
		{0x00, 0x00, 0},
		{0xFF, 0xFF, -1},
		{0x40, 0x00, 16384},
		{0x00, 0x83, 131},
	}
	for _, tc := range tests {
		if got := Int16BE([]byte{tc.hi, tc.lo}); got != tc.want {
			t.Errorf("Int16BE(0x%02X, 0x%02X) = %d, want %d", tc.hi, tc.lo, got, tc.want)
		}
	}
}

func TestTriple(t *testing.T) {
	got := Triple([]byte{0x00, 0x01, 0xFF, 0xFF, 0x40, 0x00})
	want := [3]int16{1, -1, 16384}
	if got != want {
		t.Fatalf("Triple = %v, want %v", got, want)
	}
}

func TestScale_UnitConversion(t *testing.T) {
	s := ScaleFor(Accel2G, Gyro250DPS)

	x, y, z := s.AccelG([3]int16{16384, -16384, 0})
	if x != 1.0 || y != -1.0 || z != 0 {
		t.Fatalf("AccelG = %v %v %v", x, y, z)
	}

	gx, gy, gz := s.GyroDPS([3]int16{131, -131, 262})
	if gx != 1.0 || gy != -1.0 || gz != 2.0 {
		t.Fatalf("GyroDPS = %v %v %v", gx, gy, gz)
	}
}

func TestRangeSensitivity(t *testing.T) {
	accel := map[AccelRange]float64{Accel2G: 16384, Accel4G: 8192, Accel8G: 4096, Accel16G: 2048}
	for r, want := range accel {
		if got := r.Sensitivity(); got != want {
			t.Errorf("%s sensitivity = %v, want %v", r, got, want)
		}
	}
	gyro := map[GyroRange]float64{Gyro250DPS: 131, Gyro500DPS: 65.5, Gyro1000DPS: 32.8, Gyro2000DPS: 16.4}
	for r, want := range gyro {
		if got := r.Sensitivity(); got != want {
			t.Errorf("%s sensitivity = %v, want %v", r, got, want)
		}
	}
	if AccelRange(4).Valid() || GyroRange(7).Valid() {
		t.Fatal("out-of-range codes must be invalid")
	}
	if got := Accel16G.String(); got != "±16g" {
		t.Fatalf("String() = %q", got)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/tilt_computer/internal/imu"
)

type mockSource struct {
	start time.Time
	scale imu.Scale
}

// NewMockSource creates a source that rocks a virtual device about roll and
// pitch and runs the result through the same conversion as real hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), scale: imu.ScaleFor(imu.Accel2G, imu.Gyro250DPS)}
}

func (m *mockSource) Next() (Reading, error) {
	elapsed := time.Since(m.start).Seconds()

	roll := 20 * degToRad * math.Sin(elapsed)
	pitch := 15 * degToRad * math.Cos(elapsed*0.7)

	// Gravity vector of a device with that roll and pitch.
	ax := -math.Sin(pitch)
	ay := math.Cos(pitch) * math.Sin(roll)
	az := math.Cos(pitch) * math.Cos(roll)

	rollRate := 20 * math.Cos(elapsed)
	pitchRate := -15 * 0.7 * math.Sin(elapsed*0.7)

	raw := imu.IMURaw{
		Ax: counts(ax, m.scale.Accel),
		Ay: counts(ay, m.scale.Accel),
		Az: counts(az, m.scale.Accel),
		Gx: counts(rollRate, m.scale.Gyro),
		Gy: counts(pitchRate, m.scale.Gyro),
	}
	return Compute(raw, m.scale, Offsets{}), nil
}

func counts(v, lsb float64) int16 {
	c := math.Round(v * lsb)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, c)))
}

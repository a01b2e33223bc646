// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import "time"

// Sleeper is a blocking, non-cancellable delay provider.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(time.Duration)

func (f SleepFunc) Sleep(d time.Duration) { f(d) }

// WallClock sleeps with time.Sleep.
var WallClock Sleeper = SleepFunc(time.Sleep)

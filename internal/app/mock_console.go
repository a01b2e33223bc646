// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"time"

	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

// RunMockConsole prints synthetic readings to stdout without hardware or broker.
func RunMockConsole(ctx context.Context, every time.Duration) error {
	p := &Producer{
		Source: orientation.NewMockSource(),
		Sinks:  []Sink{ConsoleSink{W: os.Stdout}},
	}
	return p.Run(ctx, every)
}

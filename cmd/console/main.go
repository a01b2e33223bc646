// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/app"
)

func main() {
	every := flag.Duration("every", 100*time.Millisecond, "sample interval")
	flag.Parse()

	log.Println("starting tilt-computer (mock console)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunMockConsole(ctx, *every); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

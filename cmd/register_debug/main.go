// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/app"
	"github.com/relabs-tech/tilt_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "./tilt_config.txt", "path to configuration file (.txt or .yaml)")
	asJSON := flag.Bool("json", false, "write the dump as JSON")
	flag.Parse()

	log.Println("starting MPU-6050 register dump")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRegisterDump(config.Get(), os.Stdout, *asJSON); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/config"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

// RegisterValue is one register read back from the device.
type RegisterValue struct {
	sensors.RegisterInfo
	Value byte   `json:"value"`
	Error string `json:"error,omitempty"`
}

// RegisterDump is the exported register snapshot.
type RegisterDump struct {
	Version   int             `json:"version"`
	Addr      uint16          `json:"addr"`
	Timestamp string          `json:"timestamp"`
	Registers []RegisterValue `json:"registers"`
}

// DumpRegisters reads every readable register in the map. A failed read is
// recorded on its entry and the dump continues.
func DumpRegisters(tr *bus.Transport, addr uint16) RegisterDump {
	dump := RegisterDump{Version: 1, Addr: addr, Timestamp: time.Now().Format(time.RFC3339)}
	for _, info := range sensors.RegisterMap() {
		if !strings.Contains(info.Access, "R") {
			continue
		}
		rv := RegisterValue{RegisterInfo: info}
		v, err := tr.ReadReg8(addr, info.Address)
		if err != nil {
			rv.Error = err.Error()
		} else {
			rv.Value = v
		}
		dump.Registers = append(dump.Registers, rv)
	}
	return dump
}

// WriteText prints one register per line.
func (d RegisterDump) WriteText(w io.Writer) error {
	for _, r := range d.Registers {
		var err error
		if r.Error != "" {
			_, err = fmt.Fprintf(w, "0x%02X  %-14s  --    %s\n", r.Address, r.Name, r.Error)
		} else {
			_, err = fmt.Fprintf(w, "0x%02X  %-14s  0x%02X  %s\n", r.Address, r.Name, r.Value, r.Description)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RunRegisterDump opens the configured bus and dumps the IMU registers to w.
func RunRegisterDump(cfg *config.Config, w io.Writer, asJSON bool) error {
	b, err := bus.Open(cfg.I2CBus)
	if err != nil {
		return err
	}
	defer b.Close()

	tr := bus.NewTransport(bus.NewPeriphLink(b), cfg.BusRetryAttempts)
	log.Printf("register_debug: reading 0x%02X on %s", cfg.IMUI2CAddr, b)
	dump := DumpRegisters(tr, cfg.IMUI2CAddr)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	}
	return dump.WriteText(w)
}

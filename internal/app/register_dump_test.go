// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relabs-tech/tilt_computer/internal/bus"
	"github.com/relabs-tech/tilt_computer/internal/bus/bustest"
	"github.com/relabs-tech/tilt_computer/internal/sensors"
)

func TestDumpRegisters(t *testing.T) {
	fake := bustest.NewDevice(sensors.DefaultAddress)
	fake.Regs[sensors.RegWhoAmI] = sensors.DeviceID
	fake.Regs[sensors.RegAccelConfig] = 0x18

	dump := DumpRegisters(bus.NewTransport(fake, 1), sensors.DefaultAddress)

	readable := 0
	for _, info := range sensors.RegisterMap() {
		if strings.Contains(info.Access, "R") {
			readable++
		}
	}
	if len(dump.Registers) != readable {
		t.Fatalf("dumped %d registers, want %d", len(dump.Registers), readable)
	}
	if len(fake.ReadRegs) != readable {
		t.Fatalf("read %d registers, want %d", len(fake.ReadRegs), readable)
	}

	var buf bytes.Buffer
	if err := dump.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"0x75  WHO_AM_I        0x68", "0x1C  ACCEL_CONFIG    0x18"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDumpRegisters_ContinuesPastFailures(t *testing.T) {
	fake := bustest.NewDevice(sensors.DefaultAddress)
	fake.FailAll = true

	dump := DumpRegisters(bus.NewTransport(fake, 2), sensors.DefaultAddress)
	if len(dump.Registers) == 0 {
		t.Fatal("empty dump")
	}
	for _, r := range dump.Registers {
		if r.Error == "" {
			t.Fatalf("register %s has no error", r.Name)
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/config"
	"github.com/relabs-tech/tilt_computer/internal/imu"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

func printOffsets(w io.Writer, off orientation.Offsets) {
	fmt.Fprintf(w,
		"[CAL ]  ROLL=%7.3f° PITCH=%7.3f° YAW=%7.3f°  wROLL=%7.3f wPITCH=%7.3f wYAW=%7.3f °/s\n",
		off.RollDeg, off.PitchDeg, off.YawDeg, off.RollRateDeg, off.PitchRateDeg, off.YawRateDeg,
	)
}

func printRaw(w io.Writer, s imu.IMURaw) {
	fmt.Fprintf(w,
		"[IMU ]  ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d\n",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz,
	)
}

// RunConsoleMQTT prints what the producer publishes until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	console := ConsoleSink{W: os.Stdout}
	if err := subscribeJSON(client, cfg.TopicOrientation, func(r orientation.Reading) {
		if err := console.Show(r); err != nil {
			log.Printf("console: %v", err)
		}
	}); err != nil {
		return err
	}
	if cfg.TopicCalibration != "" {
		if err := subscribeJSON(client, cfg.TopicCalibration, func(off orientation.Offsets) {
			printOffsets(os.Stdout, off)
		}); err != nil {
			return err
		}
	}
	if cfg.TopicIMURaw != "" {
		if err := subscribeJSON(client, cfg.TopicIMURaw, func(s imu.IMURaw) {
			printRaw(os.Stdout, s)
		}); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

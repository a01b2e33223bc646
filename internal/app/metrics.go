// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/bus"
)

// Metrics counts bus and sampling activity. It implements bus.Observer.
type Metrics struct {
	busRetries   *prometheus.CounterVec
	busExhausted *prometheus.CounterVec
	initAttempts prometheus.Counter
	samples      prometheus.Counter
	sampleErrors prometheus.Counter
	lastRoll     prometheus.Gauge
	lastPitch    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		busRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilt_bus_retries_total",
				Help: "Bus phase attempts that failed and were retried.",
			},
			[]string{"op", "phase"},
		),
		busExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilt_bus_exhausted_total",
				Help: "Bus phases that ran out of attempts.",
			},
			[]string{"op", "phase"},
		),
		initAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tilt_init_attempts_total",
			Help: "Device bring-up attempts.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tilt_samples_total",
			Help: "Orientation samples taken.",
		}),
		sampleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tilt_sample_errors_total",
			Help: "Orientation samples that failed.",
		}),
		lastRoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tilt_roll_degrees",
			Help: "Most recent calibrated roll.",
		}),
		lastPitch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tilt_pitch_degrees",
			Help: "Most recent calibrated pitch.",
		}),
	}
	reg.MustRegister(m.busRetries, m.busExhausted, m.initAttempts, m.samples, m.sampleErrors, m.lastRoll, m.lastPitch)
	return m
}

var _ bus.Observer = (*Metrics)(nil)

func (m *Metrics) Retry(op string, phase bus.Phase) {
	m.busRetries.With(prometheus.Labels{"op": op, "phase": phase.String()}).Inc()
}

func (m *Metrics) Exhausted(op string, phase bus.Phase) {
	m.busExhausted.With(prometheus.Labels{"op": op, "phase": phase.String()}).Inc()
}

// ServeMetrics exposes gatherer on /metrics in the background. Port 0 does nothing.
func ServeMetrics(port int, gatherer prometheus.Gatherer) {
	if port == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	go func() {
		log.Printf("metrics: listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics: %v", err)
		}
	}()
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_computer/internal/config"
	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// LiveState holds the latest reading and offsets seen on MQTT.
type LiveState struct {
	mu          sync.RWMutex
	reading     orientation.Reading
	haveReading bool
	offsets     orientation.Offsets
	haveOffsets bool
	changed     chan struct{}
}

func NewLiveState() *LiveState {
	return &LiveState{changed: make(chan struct{})}
}

// SetReading stores r and wakes every waiting stream.
func (s *LiveState) SetReading(r orientation.Reading) {
	s.mu.Lock()
	s.reading = r
	s.haveReading = true
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

func (s *LiveState) SetOffsets(off orientation.Offsets) {
	s.mu.Lock()
	s.offsets = off
	s.haveOffsets = true
	s.mu.Unlock()
}

// Reading returns the latest reading and a channel closed on the next update.
func (s *LiveState) Reading() (orientation.Reading, bool, <-chan struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading, s.haveReading, s.changed
}

func (s *LiveState) Offsets() (orientation.Offsets, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offsets, s.haveOffsets
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// NewWebHandler serves:
//
//	/api/orientation  latest reading
//	/api/calibration  offsets from the last calibration
//	/ws               one JSON reading per update
func NewWebHandler(state *LiveState) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		reading, ok, _ := state.Reading()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, reading)
	})

	mux.HandleFunc("/api/calibration", func(w http.ResponseWriter, r *http.Request) {
		off, ok := state.Offsets()
		if !ok {
			http.Error(w, "not calibrated yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, off)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		streamReadings(r.Context(), conn, state)
	})

	return mux
}

// streamReadings pushes every new reading until the client goes away.
func streamReadings(ctx context.Context, conn *websocket.Conn, state *LiveState) {
	// Reads are only needed to notice a close from the client.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	reading, ok, changed := state.Reading()
	for {
		if ok {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(reading); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket write error: %v", err)
				}
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case <-changed:
			reading, ok, changed = state.Reading()
		}
	}
}

// RunWeb mirrors the producer's topics into a LiveState and serves it over HTTP.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	state := NewLiveState()
	if err := subscribeJSON(client, cfg.TopicOrientation, state.SetReading); err != nil {
		return err
	}
	if cfg.TopicCalibration != "" {
		if err := subscribeJSON(client, cfg.TopicCalibration, state.SetOffsets); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: NewWebHandler(state),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/tilt_computer/internal/orientation"
)

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestWebHandler_API(t *testing.T) {
	state := NewLiveState()
	srv := httptest.NewServer(NewWebHandler(state))
	defer srv.Close()

	var r orientation.Reading
	if code := getJSON(t, srv.URL+"/api/orientation", &r); code != http.StatusServiceUnavailable {
		t.Fatalf("before data: status %d", code)
	}
	var off orientation.Offsets
	if code := getJSON(t, srv.URL+"/api/calibration", &off); code != http.StatusServiceUnavailable {
		t.Fatalf("before calibration: status %d", code)
	}

	state.SetReading(sample)
	state.SetOffsets(orientation.NewOffsets(0, 0, 1, 0.5, 0, 0))

	if code := getJSON(t, srv.URL+"/api/orientation", &r); code != http.StatusOK || r != sample {
		t.Fatalf("orientation: status %d, %+v", code, r)
	}
	if code := getJSON(t, srv.URL+"/api/calibration", &off); code != http.StatusOK || off.YawRad != 1 || off.RollRateDeg != 0.5 {
		t.Fatalf("calibration: status %d, %+v", code, off)
	}
}

func TestWebHandler_StreamsReadings(t *testing.T) {
	state := NewLiveState()
	srv := httptest.NewServer(NewWebHandler(state))
	defer srv.Close()

	first := sample
	state.SetReading(first)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got orientation.Reading
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if got != first {
		t.Fatalf("first = %+v, want %+v", got, first)
	}

	second := first
	second.RollDeg = 42
	state.SetReading(second)
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if got != second {
		t.Fatalf("second = %+v, want %+v", got, second)
	}
}

func TestLiveState_ChangedClosesOnUpdate(t *testing.T) {
	state := NewLiveState()
	_, ok, changed := state.Reading()
	if ok {
		t.Fatal("fresh state reports a reading")
	}
	select {
	case <-changed:
		t.Fatal("changed closed before any update")
	default:
	}
	state.SetReading(sample)
	select {
	case <-changed:
	default:
		t.Fatal("changed not closed by SetReading")
	}
}

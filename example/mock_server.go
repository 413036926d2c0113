package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// mockPhase is one of the behaviours the mock menu service rotates through.
type mockPhase int

const (
	phaseNormal mockPhase = iota
	phaseServerError
	phaseNotJSON
)

func (p mockPhase) String() string {
	switch p {
	case phaseServerError:
		return "server_error"
	case phaseNotJSON:
		return "not_json"
	default:
		return "normal"
	}
}

// menu schedule: fortnightly periods, menus go out a few days ahead
var (
	scheduleStart  = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	daysInAdvance  = 5
	periodDuration = 14 * 24 * time.Hour
)

// nextMenu returns the next send date, the period it covers and which pair
// of weekly menus applies.
func nextMenu(now time.Time) (sendDate, periodStart time.Time, pair string) {
	today := now.UTC().Truncate(24 * time.Hour)
	periods := int(today.Sub(scheduleStart) / periodDuration)
	periodStart = scheduleStart.Add(time.Duration(periods) * periodDuration)
	sendDate = periodStart.AddDate(0, 0, -daysInAdvance)
	if today.After(sendDate) {
		periodStart = periodStart.Add(periodDuration)
		sendDate = sendDate.Add(periodDuration)
		periods++
	}
	pair = "1_2"
	if periods%2 == 1 {
		pair = "3_4"
	}
	return sendDate, periodStart, pair
}

// StartMockMenuServer runs a mock /api/next-menu endpoint that switches
// behaviour every 20 seconds: a normal payload, a server-reported error,
// then a non-JSON error page.
// Call this in a goroutine before creating the dashboard.
func StartMockMenuServer(addr string) {
	var (
		mu      sync.Mutex
		phase   = phaseNormal
		changes = time.Now().Add(20 * time.Second)
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/next-menu", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if time.Now().After(changes) {
			old := phase
			phase = (phase + 1) % 3
			changes = time.Now().Add(20 * time.Second)
			slog.Info("mock phase change", "from", old.String(), "to", phase.String())
		}
		current := phase
		mu.Unlock()

		switch current {
		case phaseServerError:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Menu settings unavailable"})
		case phaseNotJSON:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><body><h1>502 Bad Gateway</h1></body></html>"))
		default:
			sendDate, periodStart, pair := nextMenu(time.Now())
			w.Header().Set("Content-Type", "application/json")
			resp := map[string]any{
				"send_date":    sendDate.Format("2006-01-02"),
				"period_start": periodStart.Format("2006-01-02"),
				"menu_pair":    pair,
				"season":       "Spring",
				"menus": []map[string]string{
					{"name": "Week " + pair[:1], "url": "/menus/week" + pair[:1] + ".pdf"},
					{"name": "Week " + pair[2:], "url": "/menus/week" + pair[2:] + ".pdf"},
				},
			}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				slog.Error("failed to write response", "error", err)
			}
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

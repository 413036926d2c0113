// Standalone mock menu service for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/menuboard serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// requestsPerPhase is how many polls each behaviour is served for.
const requestsPerPhase = 3

func main() {
	fmt.Println("Mock menu service starting on :9999")
	fmt.Println("GET /api/next-menu cycles through: normal → server error → non-JSON")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var requests atomic.Int64

	http.HandleFunc("/api/next-menu", func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1) - 1
		phase := (n / requestsPerPhase) % 3

		switch phase {
		case 1:
			slog.Info("serving server error", "request", n)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Menu settings unavailable"})
		case 2:
			slog.Info("serving non-JSON body", "request", n)
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><body><h1>502 Bad Gateway</h1></body></html>"))
		default:
			slog.Info("serving next menu", "request", n)
			sendDate := time.Now().AddDate(0, 0, 3)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"send_date":    sendDate.Format("2006-01-02"),
				"period_start": sendDate.AddDate(0, 0, 5).Format("2006-01-02"),
				"menu_pair":    "1_2",
				"season":       "Spring",
				"menus": []map[string]string{
					{"name": "Week 1", "url": "/menus/week1.pdf"},
					{"name": "Week 2", "url": "/menus/week2.pdf"},
				},
			})
		}
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

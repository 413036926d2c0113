package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/menuboard"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockMenuServer(":9999")
	time.Sleep(100 * time.Millisecond)

	d, err := menuboard.New(
		menuboard.WithSource("http://localhost:9999"),
		menuboard.WithPollingInterval(5*time.Second),
		menuboard.WithPort(8080),
		menuboard.WithTitle("Menu Dashboard Demo"),
		menuboard.WithField(menuboard.Field{Node: "menuPeriodStart", Path: "period_start", Format: menuboard.FormatDate}),
		menuboard.WithField(menuboard.Field{Node: "menuPair", Path: "menu_pair"}),
		menuboard.WithField(menuboard.Field{Node: "menuLinks", Path: "menus", Format: menuboard.FormatLinks}),
		menuboard.WithStateCallback(func(c menuboard.StateChange) {
			slog.Info("state change", "from", c.From.String(), "to", c.To.String(), "message", c.Message)
		}),
	)
	if err != nil {
		slog.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   menuboard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   The mock menu service switches every 20s between:   ║")
	fmt.Println("  ║   • a normal payload                                  ║")
	fmt.Println("  ║   • a server-reported error                           ║")
	fmt.Println("  ║   • a non-JSON error page                             ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		slog.Error("menuboard error", "error", err)
		os.Exit(1)
	}
}

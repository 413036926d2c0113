package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/menuboard"
	"github.com/jpalmerr/menuboard/config"
	"github.com/jpalmerr/menuboard/internal/notify"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the menuboard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the menuboard dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Poll the menu status endpoint immediately and then once per interval
  - Serve the dashboard UI on the configured port
  - Publish state changes to MQTT, if a broker is configured

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  menuboard serve -c config.yaml
  menuboard serve --config /etc/menuboard/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.Log)
	logger.Info("config loaded",
		"source", cfg.Source.URL,
		"fields", len(cfg.Fields),
		"mqtt", cfg.MQTT.Enabled(),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, menuboard.WithLogger(logger))

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MQTT.Enabled() {
		pub, err := notify.NewMQTTPublisher(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create MQTT publisher: %w", err)
		}
		pub.Start(ctx)
		defer pub.Close()

		opts = append(opts, menuboard.WithStateCallback(func(c menuboard.StateChange) {
			pub.Notify(notify.EventFromStateChange(c))
		}))
	}

	d, err := menuboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

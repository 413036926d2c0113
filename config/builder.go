package config

import (
	"fmt"
	"time"

	"github.com/jpalmerr/menuboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// Logging and MQTT settings are not included; the binary wires those
// itself.
func BuildOptions(cfg *Config) ([]menuboard.Option, error) {
	opts := []menuboard.Option{
		menuboard.WithSource(cfg.Source.URL),
		menuboard.WithPort(cfg.Port),
		menuboard.WithPollingInterval(cfg.PollInterval.Duration()),
		menuboard.WithRequestTimeout(cfg.Source.Timeout.Duration()),
		menuboard.WithLocale(cfg.Locale),
	}

	if cfg.Title != "" {
		opts = append(opts, menuboard.WithTitle(cfg.Title))
	}

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
		opts = append(opts, menuboard.WithLocation(loc))
	}

	for _, fc := range cfg.Fields {
		opts = append(opts, buildField(fc))
	}

	return opts, nil
}

// buildField converts a FieldConfig to a field option. The format was
// checked by Parse.
func buildField(fc FieldConfig) menuboard.Option {
	format, _ := menuboard.ParseFieldFormat(fc.Format)
	return menuboard.WithField(menuboard.Field{
		Node:   fc.Node,
		Path:   fc.Path,
		Format: format,
	})
}

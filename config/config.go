// Package config provides YAML configuration parsing for menuboard.
//
// This package enables running menuboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Kitchen Menus
//	port: 8080
//	poll_interval: 30s
//
//	source:
//	  url: ${MENU_SERVICE_URL:-http://localhost:5000}
//	  timeout: 10s
//
//	locale: en-GB
//	timezone: Europe/London
//
//	fields:
//	  - node: menuPeriodStart
//	    path: period_start
//	    format: date
//
//	mqtt:
//	  broker: tcp://localhost:1883
//	  topic: menuboard/state
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/menuboard"
)

// minPollInterval is the minimum allowed polling interval.
// This prevents accidental DoS of the menu service with overly aggressive polling.
const minPollInterval = 1 * time.Second

const (
	defaultPort         = 8080
	defaultPollInterval = 30 * time.Second
	defaultTimeout      = 10 * time.Second
	defaultLocale       = "en-US"
	defaultMQTTTopic    = "menuboard/state"
	defaultMQTTClientID = "menuboard"
)

// Config is the root configuration structure for menuboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Menu Dashboard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between refresh cycles.
	// Accepts duration strings like "30s", "1m". Defaults to 30s.
	PollInterval Duration `yaml:"poll_interval"`

	// Source is the menu status endpoint.
	Source SourceConfig `yaml:"source"`

	// Locale is the BCP 47 locale used for dates. Defaults to en-US.
	Locale string `yaml:"locale"`

	// Timezone is an IANA zone name timestamps are shown in.
	// Defaults to the local zone.
	Timezone string `yaml:"timezone"`

	// Fields binds extra values of the status document to display nodes.
	Fields []FieldConfig `yaml:"fields"`

	// Log configures the binary's log output.
	Log LogConfig `yaml:"log"`

	// MQTT publishes state changes to a broker when Broker is set.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// SourceConfig defines the polled endpoint.
type SourceConfig struct {
	// URL of the status endpoint. A URL without a path polls /api/next-menu.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`
}

// FieldConfig binds a value of the status document to a display node.
type FieldConfig struct {
	Node   string `yaml:"node"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
}

// MQTTConfig defines the optional state change publisher.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	// Supports environment variable substitution.
	Broker string `yaml:"broker"`

	// Topic receives retained state change messages.
	// Defaults to menuboard/state.
	Topic string `yaml:"topic"`

	// ClientID identifies the publisher. Defaults to menuboard.
	ClientID string `yaml:"client_id"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SlogLevel returns the configured level. Call only on a validated config.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(l.Level))
	return level
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in source.url and mqtt.broker.
// Defaults are applied for every optional setting.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = Duration(defaultTimeout)
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = defaultMQTTTopic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultMQTTClientID
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if err := c.Source.expandAndValidate(); err != nil {
		return err
	}

	if _, err := menuboard.NewDateFormatter(c.Locale, time.UTC); err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(c.Fields))
	for i, f := range c.Fields {
		if f.Node == "" {
			return fmt.Errorf("fields[%d]: node is required", i)
		}
		if f.Path == "" {
			return fmt.Errorf("fields[%d] (%s): path is required", i, f.Node)
		}
		if _, err := menuboard.ParseFieldFormat(f.Format); err != nil {
			return fmt.Errorf("fields[%d] (%s): %w", i, f.Node, err)
		}
		if _, exists := seen[f.Node]; exists {
			return fmt.Errorf("fields[%d]: duplicate node %q", i, f.Node)
		}
		seen[f.Node] = struct{}{}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return c.MQTT.expandAndValidate()
}

func (s *SourceConfig) expandAndValidate() error {
	if s.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	expanded, err := expandEnvVars(s.URL)
	if err != nil {
		return fmt.Errorf("source.url: %w", err)
	}
	s.URL = expanded

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("source.url: invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("source.url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("source.url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if s.Timeout.Duration() < time.Second {
		return fmt.Errorf("source.timeout must be at least 1s, got %s", s.Timeout.Duration())
	}
	return nil
}

var mqttSchemes = map[string]bool{
	"tcp": true, "mqtt": true, "ssl": true, "tls": true, "mqtts": true, "ws": true, "wss": true,
}

func (m *MQTTConfig) expandAndValidate() error {
	if m.Broker == "" {
		return nil
	}
	expanded, err := expandEnvVars(m.Broker)
	if err != nil {
		return fmt.Errorf("mqtt.broker: %w", err)
	}
	m.Broker = expanded

	// an unset variable with an empty default disables the publisher
	if m.Broker == "" {
		return nil
	}

	u, err := url.Parse(m.Broker)
	if err != nil {
		return fmt.Errorf("mqtt.broker: invalid url: %w", err)
	}
	if !mqttSchemes[u.Scheme] {
		return fmt.Errorf("mqtt.broker scheme must be one of tcp, mqtt, ssl, tls, mqtts, ws or wss, got %q", u.Scheme)
	}
	if strings.ContainsAny(m.Topic, "#+") {
		return fmt.Errorf("mqtt.topic must not contain wildcards, got %q", m.Topic)
	}
	return nil
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with args and returns captured output
// and any error.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
port: 8081
poll_interval: 10s
source:
  url: http://localhost:5000
locale: en-GB
fields:
  - node: menuPeriodStart
    path: period_start
    format: date
mqtt:
  broker: tcp://localhost:1883
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Source:        http://localhost:5000/api/next-menu",
		"Port:          8081",
		"Poll interval: 10s",
		"Locale:        en-GB",
		"Fields:        1 extra",
		"MQTT:          tcp://localhost:1883 menuboard/state",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
port: 8080
source:
  url: ftp://localhost/menu
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "http or https") {
		t.Errorf("error should mention the scheme, got: %v", err)
	}
}

func TestRunValidate_FieldShadowsDefaultNode(t *testing.T) {
	configPath := writeConfig(t, `
source:
  url: http://localhost:5000
fields:
  - node: menuSeason
    path: season
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil || !strings.Contains(err.Error(), "duplicate field node") {
		t.Errorf("validate error = %v, want duplicate field node", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "menuboard dev") {
		t.Errorf("output = %q, want version line", output)
	}
}

package menuboard

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_NoSource(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Error("New() with no source should return error")
	}
}

func TestNew_Defaults(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.PollingInterval() != 30*time.Second {
		t.Errorf("PollingInterval() = %v, want 30s", d.PollingInterval())
	}
	if d.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", d.Port())
	}
	if d.requestTimeout != 10*time.Second {
		t.Errorf("requestTimeout = %v, want 10s", d.requestTimeout)
	}
	if d.renderer.dates.Locale() != "en-US" {
		t.Errorf("locale = %q, want en-US", d.renderer.dates.Locale())
	}
	if state, msg := d.State(); state != StateNominal || msg != "" {
		t.Errorf("State() = %v %q, want nominal with no message", state, msg)
	}
}

func TestNew_SeedsNodes(t *testing.T) {
	d, err := New(
		WithSource("http://localhost:5000"),
		WithField(Field{Node: "menuLinks", Path: "menus", Format: FormatLinks}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := map[string]bool{
		NodeErrorMessages: true,
		NodeMenuSeason:    false,
		NodeNextMenuDate:  false,
		"menuLinks":       true,
	}
	nodes := d.Snapshot()
	if len(nodes) != len(want) {
		t.Fatalf("Snapshot() has %d nodes, want %d", len(nodes), len(want))
	}
	for _, n := range nodes {
		markup, ok := want[n.ID]
		if !ok {
			t.Errorf("unexpected node %q", n.ID)
			continue
		}
		if n.Markup != markup {
			t.Errorf("node %q Markup = %v, want %v", n.ID, n.Markup, markup)
		}
	}
}

func TestWithSource(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "host only", url: "http://localhost:5000", want: "http://localhost:5000/api/next-menu"},
		{name: "root path", url: "http://localhost:5000/", want: "http://localhost:5000/api/next-menu"},
		{name: "explicit path", url: "https://menus.example.com/status", want: "https://menus.example.com/status"},
		{name: "query kept", url: "http://localhost:5000/api/next-menu?site=2", want: "http://localhost:5000/api/next-menu?site=2"},
		{name: "ftp scheme", url: "ftp://localhost/menu", wantErr: true},
		{name: "no scheme", url: "localhost:5000", wantErr: true},
		{name: "no host", url: "http:///api/next-menu", wantErr: true},
		{name: "unparsable", url: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(WithSource(tt.url))
			if tt.wantErr {
				if err == nil {
					t.Errorf("WithSource(%q) should return error", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("WithSource(%q) error = %v", tt.url, err)
			}
			if d.SourceURL() != tt.want {
				t.Errorf("SourceURL() = %q, want %q", d.SourceURL(), tt.want)
			}
		})
	}
}

func TestWithPollingInterval(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"), WithPollingInterval(time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.PollingInterval() != time.Second {
		t.Errorf("PollingInterval() = %v, want 1s", d.PollingInterval())
	}
}

func TestWithPollingInterval_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{"zero", 0},
		{"negative", -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithSource("http://localhost:5000"), WithPollingInterval(tt.interval))
			if err == nil {
				t.Errorf("WithPollingInterval(%v) should return error", tt.interval)
			}
		})
	}
}

func TestWithRequestTimeout_Invalid(t *testing.T) {
	_, err := New(WithSource("http://localhost:5000"), WithRequestTimeout(0))
	if err == nil {
		t.Error("WithRequestTimeout(0) should return error")
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"min", 1, false},
		{"max", 65535, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too large", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(WithSource("http://localhost:5000"), WithPort(tt.port))
			if tt.wantErr {
				if err == nil {
					t.Errorf("WithPort(%d) should return error", tt.port)
				}
				return
			}
			if err != nil {
				t.Fatalf("WithPort(%d) error = %v", tt.port, err)
			}
			if d.Port() != tt.port {
				t.Errorf("Port() = %d, want %d", d.Port(), tt.port)
			}
		})
	}
}

func TestWithTitle(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"), WithTitle("Kitchen"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.title != "Kitchen" {
		t.Errorf("title = %q, want %q", d.title, "Kitchen")
	}
}

func TestWithLocale(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"), WithLocale("en-GB"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := d.renderer.dates.Locale(); got != "en-GB" {
		t.Errorf("locale = %q, want en-GB", got)
	}

	if _, err := New(WithSource("http://localhost:5000"), WithLocale("not a locale!")); err == nil {
		t.Error("WithLocale with an invalid tag should return error")
	}
}

func TestWithLocation_Nil(t *testing.T) {
	_, err := New(WithSource("http://localhost:5000"), WithLocation(nil))
	if err == nil {
		t.Error("WithLocation(nil) should return error")
	}
}

func TestWithField_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field Field
	}{
		{"empty node", Field{Path: "season"}},
		{"reserved node", Field{Node: NodeErrorMessages, Path: "error"}},
		{"empty path", Field{Node: "x"}},
		{"leading dot", Field{Node: "x", Path: ".a"}},
		{"double dot", Field{Node: "x", Path: "a..b"}},
		{"unknown format", Field{Node: "x", Path: "a", Format: "currency"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithSource("http://localhost:5000"), WithField(tt.field))
			if err == nil {
				t.Errorf("WithField(%+v) should return error", tt.field)
			}
		})
	}
}

func TestWithField_DuplicateNode(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"default node", []Field{{Node: NodeMenuSeason, Path: "season"}}},
		{"configured twice", []Field{{Node: "a", Path: "x"}, {Node: "a", Path: "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithSource("http://localhost:5000")}
			for _, f := range tt.fields {
				opts = append(opts, WithField(f))
			}
			_, err := New(opts...)
			if err == nil || !strings.Contains(err.Error(), "duplicate") {
				t.Errorf("New() error = %v, want duplicate field error", err)
			}
		})
	}
}

func TestWithSurface_Nil(t *testing.T) {
	_, err := New(WithSource("http://localhost:5000"), WithSurface(nil))
	if err == nil {
		t.Error("WithSurface(nil) should return error")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d, err := New(WithSource("http://localhost:5000"), WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.logger != logger {
		t.Error("logger was not set")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithSource("http://localhost:5000"), WithLogger(nil))
	if err == nil {
		t.Error("WithLogger(nil) should return error")
	}
}

func TestWithLogger_DefaultsToSlogDefault(t *testing.T) {
	d, err := New(WithSource("http://localhost:5000"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
}

func TestWithCallbacks_NilIgnored(t *testing.T) {
	d, err := New(
		WithSource("http://localhost:5000"),
		WithStateCallback(nil),
		WithCycleCallback(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(d.stateCallbacks) != 0 || len(d.cycleCallbacks) != 0 {
		t.Error("nil callbacks should be ignored")
	}
}

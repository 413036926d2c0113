package menuboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// dashboardConfig holds mutable state during Dashboard construction.
type dashboardConfig struct {
	title           string
	sourceURL       string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	port            int
	locale          string
	location        *time.Location
	fields          []Field
	surfaces        []Surface
	logger          *slog.Logger
	stateCallbacks  []func(StateChange)
	cycleCallbacks  []func(CycleResult)
}

// Option is a function that configures a [Dashboard] during construction.
//
// Options return an error if validation fails.
type Option func(*dashboardConfig) error

// WithSource sets the URL of the menu status endpoint.
//
// The URL must use http or https. A URL without a path, such as
// "http://menus.internal:5000", polls "/api/next-menu" on that host.
func WithSource(rawURL string) Option {
	return func(cfg *dashboardConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("invalid source URL: " + err.Error())
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source URL scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("source URL must have a host")
		}
		if u.Path == "" || u.Path == "/" {
			u.Path = defaultSourcePath
		}
		cfg.sourceURL = u.String()
		return nil
	}
}

// WithPollingInterval sets the time between refresh cycles.
// Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *dashboardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithRequestTimeout bounds how long a single request may take.
// Defaults to 10 seconds.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *dashboardConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port used by [Dashboard.Start]. Defaults to 8080.
func WithPort(port int) Option {
	return func(cfg *dashboardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard page title.
func WithTitle(title string) Option {
	return func(cfg *dashboardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLocale sets the BCP 47 locale used to format dates, e.g. "en-GB".
// Defaults to "en-US".
func WithLocale(locale string) Option {
	return func(cfg *dashboardConfig) error {
		if _, err := NewDateFormatter(locale, nil); err != nil {
			return err
		}
		cfg.locale = locale
		return nil
	}
}

// WithLocation sets the time zone timestamps are converted to before their
// calendar date is rendered. Date-only values are never shifted.
// Defaults to [time.Local].
func WithLocation(loc *time.Location) Option {
	return func(cfg *dashboardConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithField renders an additional value of the status document into its
// own node on every successful cycle.
//
// Example:
//
//	d, err := menuboard.New(
//	    menuboard.WithSource(src),
//	    menuboard.WithField(menuboard.Field{Node: "menuPeriodStart", Path: "period_start", Format: menuboard.FormatDate}),
//	)
func WithField(f Field) Option {
	return func(cfg *dashboardConfig) error {
		if err := f.validate(); err != nil {
			return err
		}
		f.Format, _ = ParseFieldFormat(string(f.Format))
		cfg.fields = append(cfg.fields, f)
		return nil
	}
}

// WithSurface mirrors every node write to s in addition to the dashboard's
// own document.
//
// A cycle's writes reach mirrors only after the document holds all of
// them. A mirror that panics fails the cycle, which then shows
// [GenericErrorMessage]; the document keeps the complete render.
func WithSurface(s Surface) Option {
	return func(cfg *dashboardConfig) error {
		if s == nil {
			return errors.New("surface cannot be nil")
		}
		cfg.surfaces = append(cfg.surfaces, s)
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dashboardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStateCallback registers a function called on every [StateChange].
//
// Callbacks run synchronously on the goroutine applying the cycle and must
// not block. Panics are recovered and logged. Nil callbacks are ignored.
func WithStateCallback(cb func(StateChange)) Option {
	return func(cfg *dashboardConfig) error {
		if cb != nil {
			cfg.stateCallbacks = append(cfg.stateCallbacks, cb)
		}
		return nil
	}
}

// WithCycleCallback registers a function called after every poll cycle,
// including stale ones. The same rules as [WithStateCallback] apply.
func WithCycleCallback(cb func(CycleResult)) Option {
	return func(cfg *dashboardConfig) error {
		if cb != nil {
			cfg.cycleCallbacks = append(cfg.cycleCallbacks, cb)
		}
		return nil
	}
}

package menuboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/menuboard/dashboard"
	"github.com/jpalmerr/menuboard/internal/poller"
	"github.com/jpalmerr/menuboard/internal/server"
	"github.com/jpalmerr/menuboard/internal/view"
)

const (
	defaultPollingInterval = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultPort            = 8080
	defaultSourcePath      = "/api/next-menu"
)

// Dashboard polls the menu status endpoint and keeps a set of display
// nodes up to date with the result.
//
// A Dashboard is created with [New] and functional options. Call
// [Dashboard.Poll] to run the refresh cycle in the background, or
// [Dashboard.Start] to also serve the dashboard page over HTTP:
//
//	d, err := menuboard.New(
//	    menuboard.WithSource("http://menus.internal:5000"),
//	    menuboard.WithLocale("en-GB"),
//	)
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	d.Start(ctx) // blocks until ctx is cancelled
//
// The display is in one of two states, [StateNominal] or [StateErrored].
// Only a cycle that both completes its request and carries no error moves
// it back to nominal.
type Dashboard struct {
	title           string
	sourceURL       string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	port            int
	logger          *slog.Logger
	stateCallbacks  []func(StateChange)
	cycleCallbacks  []func(CycleResult)

	doc      *view.MemoryDocument
	mirrors  []Surface
	renderer renderer
	client   *poller.Client
	seq      *poller.Sequence

	// mu serializes applying cycles and guards the fields below
	mu      sync.Mutex
	lastSeq uint64
	state   UIState
	message string

	handleMu sync.Mutex
	handle   *PollHandle
}

// New creates a [Dashboard] with the given options.
//
// A source must be configured via [WithSource]. Other options default to:
//   - Polling interval: 30 seconds
//   - Request timeout: 10 seconds
//   - Port: 8080
//   - Locale: en-US, dates in the local time zone
func New(opts ...Option) (*Dashboard, error) {
	cfg := &dashboardConfig{
		pollingInterval: defaultPollingInterval,
		requestTimeout:  defaultRequestTimeout,
		port:            defaultPort,
		locale:          defaultLocale,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.sourceURL == "" {
		return nil, errors.New("a source URL is required")
	}

	dates, err := NewDateFormatter(cfg.locale, cfg.location)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(defaultFields)+len(cfg.fields))
	fields = append(fields, defaultFields...)
	seen := make(map[string]bool, cap(fields))
	for _, f := range defaultFields {
		seen[f.Node] = true
	}
	for _, f := range cfg.fields {
		if seen[f.Node] {
			return nil, fmt.Errorf("duplicate field node: %q", f.Node)
		}
		seen[f.Node] = true
		fields = append(fields, f)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	doc := view.NewMemoryDocument()
	for _, f := range fields {
		if f.Format == FormatLinks {
			doc.SetHTML(f.Node, "")
		} else {
			doc.SetText(f.Node, "")
		}
	}
	doc.SetHTML(NodeErrorMessages, "")

	var surface Surface = doc
	if len(cfg.surfaces) > 0 {
		surface = append(multiSurface{doc}, cfg.surfaces...)
	}

	return &Dashboard{
		title:           cfg.title,
		sourceURL:       cfg.sourceURL,
		pollingInterval: cfg.pollingInterval,
		requestTimeout:  cfg.requestTimeout,
		port:            cfg.port,
		logger:          logger,
		stateCallbacks:  cfg.stateCallbacks,
		cycleCallbacks:  cfg.cycleCallbacks,
		doc:             doc,
		mirrors:         cfg.surfaces,
		renderer: renderer{
			surface: surface,
			dates:   dates,
			fields:  fields,
		},
		client: poller.NewClient(),
		seq:    &poller.Sequence{},
	}, nil
}

// Start polls the source and serves the dashboard until ctx is cancelled.
//
// The dashboard page is available at http://localhost:<port>. Returns nil
// on graceful shutdown, or an error if the HTTP server fails to start.
func (d *Dashboard) Start(ctx context.Context) error {
	d.logger.Info("menuboard starting", "source", d.sourceURL)
	d.logger.Info("polling configured", "interval", d.pollingInterval.String())
	d.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", d.port))

	if ctx.Err() != nil {
		return nil
	}

	handle := d.Poll(ctx)

	httpServer := server.NewServer(d.doc, d.port, dashboard.Assets, d.title, d.logger)
	if err := httpServer.Start(ctx); err != nil {
		handle.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	handle.Stop()
	d.logger.Info("menuboard stopped")
	return nil
}

// Poll starts the refresh cycle: one refresh immediately, then one per
// polling interval. The returned handle stops it.
//
// A Dashboard runs at most one cycle timer. Calling Poll while a handle is
// active returns that handle.
func (d *Dashboard) Poll(ctx context.Context) *PollHandle {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	if d.handle != nil && !d.handle.finished() {
		return d.handle
	}

	scheduler := poller.NewScheduler(d.sourceURL, d.pollingInterval, d.requestTimeout, d.seq, d.logger)
	h := &PollHandle{
		scheduler: scheduler,
		done:      make(chan struct{}),
	}
	scheduler.Start(ctx)

	go func() {
		defer close(h.done)
		for res := range scheduler.Results() {
			d.apply(res)
		}
	}()

	d.handle = h
	return h
}

// Refresh runs exactly one poll cycle and returns how it was applied.
//
// Refresh never fails: transport and decode failures are logged and shown
// as [GenericErrorMessage], and server-reported errors are shown verbatim.
func (d *Dashboard) Refresh(ctx context.Context) CycleResult {
	res := poller.Result{
		Seq:       d.seq.Next(),
		StartedAt: time.Now(),
	}
	res.Response = d.client.Fetch(ctx, d.sourceURL, d.requestTimeout)
	return d.apply(res)
}

// Render writes a status document into the display nodes. It does not
// touch the error container.
func (d *Dashboard) Render(data StatusResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderer.render(data)
}

// ShowError replaces the error container with an alert showing message.
// The message is inserted as text, never as markup.
func (d *Dashboard) ShowError(message string) {
	d.mu.Lock()
	change, changed := d.transitionLocked(StateErrored, message, d.lastSeq)
	d.renderer.showError(message)
	d.mu.Unlock()

	if changed {
		d.notifyState(change)
	}
}

// State returns the current display state and the error message on
// display, if any.
func (d *Dashboard) State() (UIState, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.message
}

// Snapshot returns the current content of every display node, ordered by id.
func (d *Dashboard) Snapshot() []Node {
	nodes := d.doc.All()
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{
			ID:        n.ID,
			Text:      n.Text,
			HTML:      n.HTML,
			Markup:    n.Markup,
			UpdatedAt: n.UpdatedAt,
		}
	}
	return out
}

// SourceURL returns the URL polled on every cycle.
func (d *Dashboard) SourceURL() string {
	return d.sourceURL
}

// PollingInterval returns the time between poll cycles.
func (d *Dashboard) PollingInterval() time.Duration {
	return d.pollingInterval
}

// Port returns the HTTP port used by [Dashboard.Start].
func (d *Dashboard) Port() int {
	return d.port
}

// Node is the content of one display node.
type Node struct {
	ID        string
	Text      string
	HTML      string
	Markup    bool
	UpdatedAt time.Time
}

// PollHandle owns a running refresh cycle started by [Dashboard.Poll].
type PollHandle struct {
	scheduler *poller.Scheduler
	done      chan struct{}
	stopOnce  sync.Once
}

// Stop cancels the timer and any in-flight request, and waits until the
// last cycle has been applied. Stop is idempotent.
func (h *PollHandle) Stop() {
	h.stopOnce.Do(h.scheduler.Stop)
	<-h.done
}

// Done is closed once the cycle has stopped, either through Stop or because
// the context passed to Poll was cancelled.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Cycles returns how many cycles the handle has started.
func (h *PollHandle) Cycles() uint64 {
	return h.scheduler.Cycles()
}

func (h *PollHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// apply routes one fetched result through the display state machine.
// Callbacks run after the lock is released.
func (d *Dashboard) apply(res poller.Result) CycleResult {
	d.mu.Lock()
	result, change, changed := d.applyLocked(res)
	d.mu.Unlock()

	d.logCycle(result)
	if changed {
		d.notifyState(change)
	}
	for _, cb := range d.cycleCallbacks {
		invokeCallbackSafe(cb, result, d.logger)
	}
	return result
}

func (d *Dashboard) applyLocked(res poller.Result) (CycleResult, StateChange, bool) {
	resp := res.Response
	result := CycleResult{
		Seq:         res.Seq,
		StatusCode:  resp.StatusCode,
		Latency:     resp.Latency,
		CompletedAt: time.Now(),
	}

	// latest request wins: a late response never overwrites a newer one
	if res.Seq <= d.lastSeq {
		result.Outcome = OutcomeStale
		return result, StateChange{}, false
	}
	d.lastSeq = res.Seq

	if resp.Error != nil {
		return d.failLocked(result, resp.Error)
	}

	data, err := ParseStatusResponse(resp.Body)
	if err != nil {
		return d.failLocked(result, err)
	}

	if msg, ok := data.ServerReportedError(); ok {
		d.renderer.showError(msg)
		result.Outcome = OutcomeServerError
		result.Message = msg
		change, changed := d.transitionLocked(StateErrored, msg, res.Seq)
		return result, change, changed
	}

	if err := d.safeRender(data); err != nil {
		return d.failLocked(result, err)
	}
	d.renderer.clearError()
	result.Outcome = OutcomeRendered
	change, changed := d.transitionLocked(StateNominal, "", res.Seq)
	return result, change, changed
}

// failLocked shows the generic message and logs the real cause with a
// correlation id.
func (d *Dashboard) failLocked(result CycleResult, cause error) (CycleResult, StateChange, bool) {
	correlationID := uuid.NewString()

	attrs := []any{
		"correlation_id", correlationID,
		"seq", result.Seq,
		"url", d.sourceURL,
		"status_code", result.StatusCode,
		"latency_ms", result.Latency.Milliseconds(),
		"error", cause.Error(),
	}
	var pe *renderPanicError
	if errors.As(cause, &pe) {
		attrs = append(attrs, "panic", fmt.Sprintf("%v", pe.value), "stack", string(pe.stack))
	}
	d.logger.Error("failed to update menu status", attrs...)

	d.renderer.showError(GenericErrorMessage)
	result.Outcome = OutcomeTransportError
	result.Message = GenericErrorMessage
	result.Err = fmt.Errorf("%w (correlation_id: %s)", cause, correlationID)

	change, changed := d.transitionLocked(StateErrored, GenericErrorMessage, result.Seq)
	return result, change, changed
}

// transitionLocked records the new state and reports whether callbacks
// should hear about it.
func (d *Dashboard) transitionLocked(to UIState, message string, seq uint64) (StateChange, bool) {
	from, prevMessage := d.state, d.message
	d.state, d.message = to, message

	if from == to && prevMessage == message {
		return StateChange{}, false
	}
	return StateChange{
		From:    from,
		To:      to,
		Message: message,
		Seq:     seq,
		At:      time.Now(),
	}, true
}

type renderPanicError struct {
	value any
	stack []byte
}

func (e *renderPanicError) Error() string {
	return fmt.Sprintf("render panic: %v", e.value)
}

// safeRender stages a cycle's writes, applies them to the document in
// full and only then to the mirror surfaces. A panicking surface is
// recovered so one bad cycle cannot take the process down.
func (d *Dashboard) safeRender(data StatusResponse) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &renderPanicError{value: r, stack: debug.Stack()}
		}
	}()

	var staged stagedSurface
	r := d.renderer
	r.surface = &staged
	r.render(data)

	staged.replay(d.doc)
	for _, m := range d.mirrors {
		staged.replay(m)
	}
	return nil
}

func (d *Dashboard) logCycle(result CycleResult) {
	attrs := []any{
		"seq", result.Seq,
		"outcome", string(result.Outcome),
		"status_code", result.StatusCode,
		"latency_ms", result.Latency.Milliseconds(),
	}
	switch result.Outcome {
	case OutcomeServerError:
		d.logger.Warn("server reported error", append(attrs, "message", result.Message)...)
	case OutcomeStale:
		d.logger.Debug("discarded stale poll result", attrs...)
	case OutcomeRendered:
		d.logger.Debug("menu status updated", attrs...)
	}
}

func (d *Dashboard) notifyState(change StateChange) {
	if change.To == StateErrored && change.From == StateNominal {
		d.logger.Info("menu status errored", "seq", change.Seq, "message", change.Message)
	} else if change.To == StateNominal {
		d.logger.Info("menu status recovered", "seq", change.Seq)
	}
	for _, cb := range d.stateCallbacks {
		invokeCallbackSafe(cb, change, d.logger)
	}
}

// invokeCallbackSafe calls cb with panic recovery. Panics are logged but
// do not propagate.
func invokeCallbackSafe[T any](cb func(T), v T, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panicked", "panic", r)
		}
	}()
	cb(v)
}

// multiSurface mirrors writes to several surfaces in order.
type multiSurface []Surface

func (m multiSurface) SetText(id, text string) {
	for _, s := range m {
		s.SetText(id, text)
	}
}

func (m multiSurface) SetHTML(id, markup string) {
	for _, s := range m {
		s.SetHTML(id, markup)
	}
}

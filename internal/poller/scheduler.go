package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Result is the outcome of one poll cycle.
type Result struct {
	// Seq is the cycle's sequence number. Sequence numbers are assigned when
	// a cycle starts and increase by one per cycle, starting at 1.
	Seq uint64

	// StartedAt is when the request was issued.
	StartedAt time.Time

	// Response is the raw fetch outcome.
	Response Response
}

// Scheduler fires one fetch of a single URL immediately on start and then
// once per interval.
//
// Each cycle runs in its own goroutine, so a slow request does not delay the
// next tick and cycles may complete out of order. Consumers use [Result.Seq]
// to discard results older than the newest one they have applied.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	client   *Client
	results  chan Result
	logger   *slog.Logger

	seq    *Sequence
	cycles atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a new [Scheduler] for url.
//
// Sequence numbers are drawn from seq; a nil seq gives the scheduler its
// own. The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(url string, interval, timeout time.Duration, seq *Sequence, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if seq == nil {
		seq = &Sequence{}
	}
	return &Scheduler{
		url:      url,
		interval: interval,
		timeout:  timeout,
		client:   NewClient(),
		results:  make(chan Result, 4),
		logger:   logger,
		seq:      seq,
	}
}

// Results returns a receive-only channel of cycle results.
//
// Cycles still in flight when the scheduler stops are dropped. The channel is closed once the scheduler has stopped and every in-flight
// cycle has finished.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking. If ctx is nil, context.Background() is used.
// Start is idempotent, and a no-op after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.dispatch(pollCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				s.dispatch(pollCtx)
			}
		}
	}()

	// close results once the loop and all cycles have finished, including
	// when the parent context is cancelled without Stop being called
	go func() {
		<-pollCtx.Done()
		s.wg.Wait()
		s.closeOnce.Do(func() { close(s.results) })
	}()
}

// Stop cancels the loop and any in-flight request and blocks until all
// cycles have returned and the results channel is closed.
//
// Stop is idempotent. Calling Stop before Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.client.Close()
	s.closeOnce.Do(func() { close(s.results) })
}

// Cycles returns how many cycles this scheduler has started.
func (s *Scheduler) Cycles() uint64 {
	return s.cycles.Load()
}

// dispatch starts one cycle. The loop goroutine holds a wg slot while
// calling dispatch, so Add never races with Wait reaching zero.
func (s *Scheduler) dispatch(ctx context.Context) {
	seq := s.seq.Next()
	s.cycles.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result := Result{
			Seq:       seq,
			StartedAt: time.Now(),
		}
		result.Response = s.client.Fetch(ctx, s.url, s.timeout)

		// a request cut short by Stop or cancellation is not a failed cycle
		if ctx.Err() != nil {
			s.logger.Debug("dropping poll result after shutdown", "seq", seq)
			return
		}

		select {
		case s.results <- result:
		case <-ctx.Done():
			s.logger.Debug("dropping poll result after shutdown", "seq", seq)
		}
	}()
}

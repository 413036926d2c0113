package poller

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"send_date":"2024-03-15","season":"Spring"}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// TestScheduler_StopBeforeStart verifies that calling Stop() on a scheduler
// that was never started does not panic and closes the results channel.
func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler("http://example.com", time.Minute, time.Second, nil, testLogger())

	scheduler.Stop()

	if _, ok := <-scheduler.Results(); ok {
		t.Error("expected results channel to be closed")
	}

	// Start after Stop must stay a no-op
	scheduler.Start(context.Background())
	if got := scheduler.Cycles(); got != 0 {
		t.Errorf("Cycles() = %d after Start following Stop, want 0", got)
	}
}

// TestScheduler_StopTwice verifies that Stop() is idempotent.
func TestScheduler_StopTwice(t *testing.T) {
	ts := okServer(t)
	scheduler := NewScheduler(ts.URL, time.Minute, time.Second, nil, testLogger())
	scheduler.Start(context.Background())

	go func() {
		for range scheduler.Results() {
		}
	}()

	scheduler.Stop()
	scheduler.Stop()
}

// TestScheduler_PollsImmediately verifies that the first cycle fires at
// start, well before the first tick.
func TestScheduler_PollsImmediately(t *testing.T) {
	ts := okServer(t)
	scheduler := NewScheduler(ts.URL, time.Hour, time.Second, nil, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case result := <-scheduler.Results():
		if result.Seq != 1 {
			t.Errorf("Seq = %d, want 1", result.Seq)
		}
		if result.Response.Error != nil {
			t.Errorf("Response.Error = %v", result.Response.Error)
		}
		if result.StartedAt.IsZero() {
			t.Error("StartedAt is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result from immediate poll")
	}
}

// TestScheduler_OneCyclePerInterval verifies the cadence: one cycle at start
// plus one per elapsed interval, with increasing sequence numbers.
func TestScheduler_OneCyclePerInterval(t *testing.T) {
	ts := okServer(t)
	scheduler := NewScheduler(ts.URL, 100*time.Millisecond, time.Second, nil, testLogger())
	scheduler.Start(context.Background())

	var seqs []uint64
	timeout := time.After(3 * time.Second)
	for len(seqs) < 3 {
		select {
		case result := <-scheduler.Results():
			seqs = append(seqs, result.Seq)
		case <-timeout:
			t.Fatalf("received %d results, want 3", len(seqs))
		}
	}
	scheduler.Stop()

	seen := make(map[uint64]bool)
	for _, s := range seqs {
		if seen[s] {
			t.Errorf("duplicate sequence number %d", s)
		}
		seen[s] = true
	}
	if started := scheduler.Cycles(); started < 3 {
		t.Errorf("Cycles() = %d, want >= 3", started)
	}
}

// TestScheduler_SlowCycleDoesNotBlockTicks verifies that a stuck request
// does not hold back later cycles, so results can arrive out of order.
func TestScheduler_SlowCycleDoesNotBlockTicks(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()
	defer close(release)

	scheduler := NewScheduler(ts.URL, 50*time.Millisecond, 5*time.Second, nil, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case result := <-scheduler.Results():
		if result.Seq == 1 {
			t.Error("first result came from the blocked cycle")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("later cycles were blocked by the slow first cycle")
	}
}

// TestScheduler_SharedSequence verifies that numbers drawn outside the
// scheduler are skipped by its cycles.
func TestScheduler_SharedSequence(t *testing.T) {
	ts := okServer(t)
	seq := &Sequence{}
	seq.Next()
	seq.Next()

	scheduler := NewScheduler(ts.URL, time.Hour, time.Second, seq, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case result := <-scheduler.Results():
		if result.Seq != 3 {
			t.Errorf("Seq = %d, want 3", result.Seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
	if seq.Current() != 3 {
		t.Errorf("Current() = %d, want 3", seq.Current())
	}
}

// TestScheduler_ContextCancelClosesResults verifies that cancelling the
// parent context without Stop still closes the results channel.
func TestScheduler_ContextCancelClosesResults(t *testing.T) {
	ts := okServer(t)
	scheduler := NewScheduler(ts.URL, time.Hour, time.Second, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		for range scheduler.Results() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("results channel not closed after context cancellation")
	}
}

// TestScheduler_ConcurrentStartStop verifies that calling Start() and Stop()
// concurrently does not race or panic. Run with: go test -race ./internal/poller/...
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	ts := okServer(t)

	for i := 0; i < 50; i++ {
		scheduler := NewScheduler(ts.URL, time.Minute, time.Second, nil, testLogger())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			scheduler.Start(context.Background())
		}()
		go func() {
			defer wg.Done()
			scheduler.Stop()
		}()
		wg.Wait()

		// Stop may have run first, leaving Start a no-op; stop again to be sure
		scheduler.Stop()
		for range scheduler.Results() {
		}
	}
}

// TestScheduler_StopDropsInFlightCycle verifies that a request cancelled by
// Stop never reaches the results channel.
func TestScheduler_StopDropsInFlightCycle(t *testing.T) {
	arrived := make(chan struct{}, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-r.Context().Done()
	}))
	defer ts.Close()

	for i := 0; i < 20; i++ {
		scheduler := NewScheduler(ts.URL, time.Hour, 5*time.Second, nil, testLogger())
		scheduler.Start(context.Background())

		select {
		case <-arrived:
		case <-time.After(2 * time.Second):
			t.Fatal("request never reached the server")
		}
		scheduler.Stop()

		for result := range scheduler.Results() {
			t.Fatalf("run %d: got result seq=%d error=%v after Stop", i, result.Seq, result.Response.Error)
		}
	}
}

package suggest

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// SchedulerConfig tunes the debounce.
type SchedulerConfig struct {
	// Step is added to the delay for every extra call within Window.
	Step time.Duration `toml:"step"`
	// MaxDelay caps the delay.
	MaxDelay time.Duration `toml:"max_delay"`
	// Window is how far back calls are counted.
	Window time.Duration `toml:"window"`
}

// DefaultSchedulerConfig returns the stock debounce: 150ms per recent call,
// capped at 300ms, counting calls of the last second.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Step:     150 * time.Millisecond,
		MaxDelay: 300 * time.Millisecond,
		Window:   time.Second,
	}
}

// Callbacks receive the scheduler's output. They are called without the
// scheduler's lock held, possibly from a timer goroutine. Nil callbacks are
// skipped.
type Callbacks struct {
	// OnBatch receives the results of the most recent request only.
	OnBatch func(*Batch)
	// OnClear is called when the text became blank.
	OnClear func()
	// OnLoading reports the loading indicator.
	OnLoading func(bool)
	// OnError receives provider failures. Cancellations are never reported.
	OnError func(error)
}

// Timer is the part of *time.Timer the scheduler uses.
type Timer interface {
	Stop() bool
}

// Scheduler debounces text changes into fetches. Each Update supersedes the
// previous one: its pending timer is stopped and its in-flight fetch is
// canceled, so only the latest text can produce visible results.
type Scheduler struct {
	fetcher Fetcher
	cfg     SchedulerConfig
	cb      Callbacks
	logger  *log.Logger

	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer

	mu         sync.Mutex
	calls      []time.Time
	timer      Timer
	cancel     context.CancelFunc
	generation uint64
	inFlight   int
	loading    bool
	closed     bool
}

// NewScheduler returns a Scheduler issuing fetches through f.
func NewScheduler(f Fetcher, cfg SchedulerConfig, cb Callbacks, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		fetcher: f,
		cfg:     cfg,
		cb:      cb,
		logger:  logger,
		now:     time.Now,
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
	}
}

// Update records a text change. Blank text clears suggestions right away;
// otherwise a fetch for req is scheduled after the debounce delay.
func (s *Scheduler) Update(req Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()

	now := s.now()
	s.calls = append(s.calls, now)
	cutoff := now.Add(-s.cfg.Window)
	kept := s.calls[:0]
	for _, t := range s.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.calls = kept

	if req.Text == "" {
		s.abortLocked()
		s.loading = false
		s.mu.Unlock()

		s.notifyLoading(false)
		if s.cb.OnClear != nil {
			s.cb.OnClear()
		}
		return
	}

	s.abortLocked()
	gen := s.generation
	delay := s.delayLocked()
	s.timer = s.afterFunc(delay, func() { s.fire(gen, req) })
	s.mu.Unlock()

	s.logger.Debug("fetch scheduled", "delay", delay, "generation", gen)
}

// Delay returns the debounce delay for the calls recorded so far, which is
// the delay the last Update scheduled with.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delayLocked()
}

// Abort cancels the pending and in-flight fetch without clearing anything.
func (s *Scheduler) Abort() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.abortLocked()
	s.mu.Unlock()
}

// Close aborts all work. Later updates are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.abortLocked()
	s.mu.Unlock()
}

// Loading reports whether any fetch is in flight.
func (s *Scheduler) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// InFlight returns the number of fetches that have not settled yet.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Scheduler) delayLocked() time.Duration {
	n := len(s.calls) - 1
	if n < 0 {
		n = 0
	}
	d := s.cfg.Step * time.Duration(n)
	if d > s.cfg.MaxDelay {
		d = s.cfg.MaxDelay
	}
	return d
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// abortLocked cancels the in-flight fetch and invalidates its generation.
func (s *Scheduler) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

func (s *Scheduler) fire(gen uint64, req Request) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.inFlight++
	s.loading = true
	s.mu.Unlock()

	s.notifyLoading(true)

	batch, err := s.fetcher.Fetch(ctx, req)
	cancel()

	s.mu.Lock()
	s.inFlight--
	stopLoading := s.inFlight == 0 && s.loading
	if stopLoading {
		s.loading = false
	}
	current := gen == s.generation && !s.closed
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if stopLoading {
		s.notifyLoading(false)
	}

	switch {
	case err != nil && IsCanceled(err):
		s.logger.Debug("fetch canceled", "generation", gen)
	case err != nil:
		if current && s.cb.OnError != nil {
			s.cb.OnError(err)
		}
	case !current:
		s.logger.Debug("dropping stale batch", "generation", gen)
	case batch != nil && s.cb.OnBatch != nil:
		s.cb.OnBatch(batch)
	}
}

func (s *Scheduler) notifyLoading(v bool) {
	if s.cb.OnLoading != nil {
		s.cb.OnLoading(v)
	}
}

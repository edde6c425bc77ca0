// Package poller drives periodic and on-demand refreshes of the reconciled
// stores.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"antmonitor/fleet"
	"antmonitor/metrics"
)

// DefaultInterval is the automatic refresh period.
const DefaultInterval = time.Second

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Phase is the progress of a manual refresh.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseSuccess    Phase = "success"
	PhaseFailure    Phase = "failure"
)

// Status is reported for manual refreshes only. Automatic cycles stay
// silent.
type Status struct {
	Kind    fleet.Kind `json:"kind"`
	Phase   Phase      `json:"phase"`
	Message string     `json:"message,omitempty"`
	At      time.Time  `json:"at"`
}

func (s Status) String() string {
	switch s.Phase {
	case PhaseInProgress:
		return fmt.Sprintf("refreshing %s...", s.Kind)
	case PhaseSuccess:
		return fmt.Sprintf("%s refreshed", s.Kind)
	default:
		return fmt.Sprintf("%s refresh failed: %s", s.Kind, s.Message)
	}
}

// LogFunc matches log.Printf.
type LogFunc func(format string, args ...any)

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogFunc(fn LogFunc) Option {
	return func(s *Scheduler) { s.logFn = fn }
}

// WithDebug enables logging of automatic-cycle fetch failures.
func WithDebug(on bool) Option {
	return func(s *Scheduler) { s.debug = on }
}

// WithStatus sets the manual refresh status callback.
func WithStatus(fn func(Status)) Option {
	return func(s *Scheduler) { s.statusFn = fn }
}

// WithApplied sets a callback run on the loop after each store mutation.
func WithApplied(fn func(Applied)) Option {
	return func(s *Scheduler) { s.appliedFn = fn }
}

// WithAfterCycle sets a callback run on the loop at the end of every
// automatic cycle, whether or not anything changed.
func WithAfterCycle(fn func()) Option {
	return func(s *Scheduler) { s.afterCycle = fn }
}

// Scheduler runs automatic refresh cycles on a fixed interval and serves
// manual refreshes. One scheduler guards one resource group: automatic
// cycles never overlap, and a tick that finds a cycle in flight is dropped.
type Scheduler struct {
	loop       *Loop
	interval   time.Duration
	metrics    *metrics.Metrics
	logFn      LogFunc
	debug      bool
	statusFn   func(Status)
	appliedFn  func(Applied)
	afterCycle func()

	srcMu   sync.RWMutex
	auto    []Source
	sources map[fleet.Kind]Source

	inFlight atomic.Bool

	mu       sync.Mutex
	state    State
	stopChan chan struct{}
}

func New(loop *Loop, opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:     loop,
		interval: DefaultInterval,
		logFn:    log.Printf,
		sources:  make(map[fleet.Kind]Source),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes src available to manual refresh. When auto is set it also
// joins the automatic cycle; automatic sources are applied in the order
// they were registered.
func (s *Scheduler) Register(src Source, auto bool) {
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	s.auto = slices.DeleteFunc(s.auto, func(a Source) bool { return a.Kind == src.Kind })
	s.sources[src.Kind] = src
	if auto {
		s.auto = append(s.auto, src)
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// InFlight reports whether an automatic cycle is running.
func (s *Scheduler) InFlight() bool { return s.inFlight.Load() }

// Start begins ticking. A running timer is stopped first so there is never
// more than one.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopChan != nil {
		close(s.stopChan)
	}
	stop := make(chan struct{})
	s.stopChan = stop
	s.state = Running
	go s.run(stop)
}

// Stop cancels the timer. A cycle already in flight runs to completion and
// its results are still applied.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
	s.state = Stopped
}

func (s *Scheduler) run(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Checked here as well as in RunAuto so a tick that lands on
			// a busy cycle costs no goroutine.
			if s.inFlight.Load() {
				s.metrics.TickSkipped()
				continue
			}
			go s.RunAuto(context.Background())
		}
	}
}

// RunAuto runs one automatic cycle unless one is already in flight, in
// which case it returns false without fetching anything.
func (s *Scheduler) RunAuto(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.TickSkipped()
		return false
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	s.cycle(ctx)
	s.metrics.CycleDone(time.Since(start))
	return true
}

func (s *Scheduler) cycle(ctx context.Context) {
	s.srcMu.RLock()
	srcs := append([]Source(nil), s.auto...)
	s.srcMu.RUnlock()

	applies := make([]func() Applied, len(srcs))
	errs := make([]error, len(srcs))

	var g errgroup.Group
	for i, src := range srcs {
		g.Go(func() error {
			applies[i], errs[i] = src.fetch(ctx)
			return errs[i]
		})
	}
	_ = g.Wait() // per-kind errors handled below

	for i, src := range srcs {
		if errs[i] != nil {
			s.metrics.FetchError(string(src.Kind))
			s.debugf("poller: auto refresh %s: %v", src.Kind, errs[i])
			continue
		}
		s.apply(applies[i])
	}

	if s.afterCycle != nil {
		s.loop.Do(s.afterCycle)
	}
}

func (s *Scheduler) apply(fn func() Applied) {
	s.loop.Do(func() {
		a := fn()
		s.metrics.Reconciled(string(a.Kind), len(a.Change.Added), len(a.Change.Removed), len(a.Change.Updated), a.Total)
		if s.appliedFn != nil {
			s.appliedFn(a)
		}
	})
}

// Refresh fetches and applies one kind immediately. It is not gated by the
// automatic single-flight guard, so it may overlap a running cycle. The
// fetch error, if any, is returned after being reported as status.
func (s *Scheduler) Refresh(ctx context.Context, kind fleet.Kind) error {
	s.srcMu.RLock()
	src, ok := s.sources[kind]
	s.srcMu.RUnlock()
	if !ok {
		return fmt.Errorf("poller: no source for %q", kind)
	}

	s.report(Status{Kind: kind, Phase: PhaseInProgress})
	apply, err := src.fetch(ctx)
	s.metrics.ManualRefresh(string(kind), err)
	if err != nil {
		s.metrics.FetchError(string(kind))
		s.logFn("poller: refresh %s: %v", kind, err)
		s.report(Status{Kind: kind, Phase: PhaseFailure, Message: err.Error()})
		return err
	}
	s.apply(apply)
	s.report(Status{Kind: kind, Phase: PhaseSuccess})
	return nil
}

// RefreshAll manually refreshes every automatic kind in cycle order,
// continuing past failures.
func (s *Scheduler) RefreshAll(ctx context.Context) error {
	s.srcMu.RLock()
	kinds := make([]fleet.Kind, len(s.auto))
	for i, src := range s.auto {
		kinds[i] = src.Kind
	}
	s.srcMu.RUnlock()

	var errs []error
	for _, k := range kinds {
		if err := s.Refresh(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) report(st Status) {
	if s.statusFn == nil {
		return
	}
	st.At = time.Now()
	s.statusFn(st)
}

func (s *Scheduler) debugf(format string, args ...any) {
	if s.debug {
		s.logFn(format, args...)
	}
}

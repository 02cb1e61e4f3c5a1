package build

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pithecene-io/foundry/log"
	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// ErrBuildInFlight is returned when a rebuild is requested while a
// previous rebuild for the same session is still running.
var ErrBuildInFlight = errors.New("build: rebuild already in flight")

// Timeouts layers the three build deadlines. The safety timeout is the
// outermost guard and must exceed the sum of the phase budgets, otherwise
// it would fire while a phase is still legitimately inside its own budget.
type Timeouts struct {
	Init   time.Duration
	Bundle time.Duration
	Safety time.Duration
}

// DefaultTimeouts returns the standard deadline profile.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Init:   2 * time.Second,
		Bundle: 20 * time.Second,
		Safety: 30 * time.Second,
	}
}

// Validate checks the layering invariant.
func (t Timeouts) Validate() error {
	if t.Init <= 0 || t.Bundle <= 0 || t.Safety <= 0 {
		return errors.New("build: all timeouts must be positive")
	}
	if t.Safety <= t.Init+t.Bundle {
		return fmt.Errorf("build: safety timeout %s must exceed init+bundle %s",
			t.Safety, t.Init+t.Bundle)
	}
	return nil
}

// Orchestrator serializes rebuilds of a session's project. At most one
// rebuild runs at a time; a session switch resets the in-flight flag so a
// stale build from an abandoned session can never wedge the new one.
type Orchestrator struct {
	bundler   Bundler
	timeouts  Timeouts
	logger    *log.Logger
	collector *metrics.Collector

	mu       sync.Mutex
	building bool
	session  *types.Session
	cancel   context.CancelFunc
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithTimeouts overrides the default deadline profile.
func WithTimeouts(t Timeouts) OrchestratorOption {
	return func(o *Orchestrator) { o.timeouts = t }
}

// WithBuildLogger attaches a logger.
func WithBuildLogger(l *log.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithBuildCollector attaches a metrics collector.
func WithBuildCollector(c *metrics.Collector) OrchestratorOption {
	return func(o *Orchestrator) { o.collector = c }
}

// NewOrchestrator creates an orchestrator around the given bundler.
func NewOrchestrator(b Bundler, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		bundler:  b,
		timeouts: DefaultTimeouts(),
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.timeouts.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Reset binds the orchestrator to a new session. Any rebuild still running
// for the previous session is cancelled and its result discarded.
func (o *Orchestrator) Reset(session *types.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.building = false
	o.session = session
}

// IsBuilding reports whether a rebuild is currently in flight.
func (o *Orchestrator) IsBuilding() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.building
}

// Rebuild snapshots the store and runs a full build cycle. The returned
// result is never nil when err is nil: failures inside the bundle phase
// degrade to a result carrying diagnostics.
func (o *Orchestrator) Rebuild(ctx context.Context, store *vfs.Store) (*types.BuildResult, error) {
	o.mu.Lock()
	if o.building {
		o.mu.Unlock()
		return nil, ErrBuildInFlight
	}
	o.building = true
	session := o.session
	buildCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		// A Reset may have rebound the orchestrator while this rebuild
		// was draining; only clear state that still belongs to it.
		if o.session == session {
			o.building = false
			o.cancel = nil
		}
		o.mu.Unlock()
	}()

	o.collector.IncBuildStarted()
	start := time.Now()

	// Init phase: snapshot the store under its own small budget.
	initCtx, initCancel := context.WithTimeout(buildCtx, o.timeouts.Init)
	files, meta, err := snapshotStore(initCtx, store)
	initCancel()
	if err != nil {
		return nil, fmt.Errorf("build: init phase: %w", err)
	}

	bundleCtx, bundleCancel := context.WithTimeout(buildCtx, o.timeouts.Bundle)
	defer bundleCancel()

	type bundleOutcome struct {
		result *types.BuildResult
		err    error
	}
	done := make(chan bundleOutcome, 1)
	go func() {
		result, err := o.bundler.Bundle(bundleCtx, files, meta)
		done <- bundleOutcome{result, err}
	}()

	safety := time.NewTimer(o.timeouts.Safety)
	defer safety.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
				return o.timedOutResult(session, start), nil
			}
			return nil, fmt.Errorf("build: bundle phase: %w", out.err)
		}
		o.finish(out.result, session, start)
		return out.result, nil

	case <-safety.C:
		// The bundler ignored its context. Abandon it; the drained
		// goroutine below keeps the channel from leaking.
		bundleCancel()
		go func() { <-done }()
		o.logger.Warn("build safety timeout fired", map[string]any{
			"timeout": o.timeouts.Safety.String(),
		})
		return o.timedOutResult(session, start), nil

	case <-buildCtx.Done():
		go func() { <-done }()
		return nil, buildCtx.Err()
	}
}

// snapshotStore copies the working set out of the store. The copy is cheap
// but still bounded by the init budget so a poisoned lock cannot hang the
// whole cycle past its deadline.
func snapshotStore(ctx context.Context, store *vfs.Store) ([]types.VirtualFile, types.ProjectMeta, error) {
	type snap struct {
		files []types.VirtualFile
		meta  types.ProjectMeta
	}
	done := make(chan snap, 1)
	go func() {
		done <- snap{files: store.GetFiles(), meta: store.Meta()}
	}()
	select {
	case s := <-done:
		return s.files, s.meta, nil
	case <-ctx.Done():
		return nil, types.ProjectMeta{}, ctx.Err()
	}
}

func (o *Orchestrator) finish(result *types.BuildResult, session *types.Session, start time.Time) {
	if result.HasDiagnostics() {
		o.collector.IncBuildWithDiagnostics()
	} else {
		o.collector.IncBuildSucceeded()
	}
	fields := map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"diagnostics": len(result.Errors),
	}
	if session != nil {
		fields["session_id"] = session.ID
	}
	o.logger.Info("build completed", fields)
}

// timedOutResult degrades a timeout to a diagnostic-bearing result so the
// caller still has something to show.
func (o *Orchestrator) timedOutResult(session *types.Session, start time.Time) *types.BuildResult {
	o.collector.IncBuildTimedOut()
	fields := map[string]any{"duration_ms": time.Since(start).Milliseconds()}
	if session != nil {
		fields["session_id"] = session.ID
	}
	o.logger.Warn("build timed out", fields)
	return &types.BuildResult{
		Success: true,
		Errors: []types.Diagnostic{{
			Message: "build timed out before producing a preview",
		}},
		DurationMs: time.Since(start).Milliseconds(),
	}
}

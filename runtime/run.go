// Package runtime coordinates a full generation run: streaming ingestion,
// final reconciliation, the settling build, and downstream side effects.
package runtime

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pithecene-io/foundry/adapter"
	"github.com/pithecene-io/foundry/build"
	"github.com/pithecene-io/foundry/log"
	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/reconcile"
	"github.com/pithecene-io/foundry/stream"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// persistTimeout bounds the best-effort snapshot write after a run. The
// run's own context may already be cancelled by then, so persistence gets
// a detached budget of its own.
const persistTimeout = 10 * time.Second

// publishTimeout bounds the best-effort completion notification.
const publishTimeout = 15 * time.Second

// Persister is the subset of the persistence layer the runtime needs.
type Persister interface {
	Save(ctx context.Context, snap *types.ProjectSnapshot) error
}

// Config assembles a GenerationRun's collaborators. Store is required;
// everything else is optional and degrades to a no-op.
type Config struct {
	Store        *vfs.Store
	Observer     stream.Observer
	Orchestrator *build.Orchestrator
	Reconciler   *reconcile.Reconciler
	Persister    Persister
	Adapter      adapter.Adapter
	Logger       *log.Logger
	Collector    *metrics.Collector
}

// ProjectResult is the settled outcome of a finished generation run.
type ProjectResult struct {
	Session      *types.Session
	Meta         types.ProjectMeta
	Files        []types.VirtualFile
	Build        *types.BuildResult
	Outcome      reconcile.Outcome
	FallbackUsed bool
	PlainText    string
	Duration     time.Duration
	EventCount   int64
}

// GenerationRun drives one model response from first chunk to settled
// project. Runs are single-use: create one per response.
type GenerationRun struct {
	cfg     Config
	session *types.Session
	parser  *stream.Parser
	logger  *log.Logger
	started time.Time
}

// NewGenerationRun starts a new run over the given collaborators. A fresh
// session is created and, when an orchestrator is present, bound to it so
// stale builds from prior sessions cannot interfere.
func NewGenerationRun(cfg Config) (*GenerationRun, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("runtime: store is required")
	}

	session := types.NewSession()
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	parserOpts := []stream.Option{
		stream.WithLogger(logger),
		stream.WithCollector(cfg.Collector),
	}
	if cfg.Observer != nil {
		parserOpts = append(parserOpts, stream.WithObserver(cfg.Observer))
	}

	if cfg.Orchestrator != nil {
		cfg.Orchestrator.Reset(session)
	}
	if cfg.Reconciler == nil {
		cfg.Reconciler = reconcile.New(cfg.Store,
			reconcile.WithLogger(logger),
			reconcile.WithCollector(cfg.Collector),
		)
	}

	r := &GenerationRun{
		cfg:     cfg,
		session: session,
		parser:  stream.NewParser(cfg.Store, parserOpts...),
		logger:  logger,
		started: time.Now(),
	}
	logger.Info("generation run started", map[string]any{
		"session_id": session.ID,
	})
	return r, nil
}

// Session returns the run's session.
func (r *GenerationRun) Session() *types.Session {
	return r.session
}

// Consume feeds one response chunk into the incremental parser.
// Chunks arriving after Cancel are ignored.
func (r *GenerationRun) Consume(chunk string) {
	if r.session.Cancelled() {
		return
	}
	r.parser.Consume(chunk)
}

// Cancel abandons the run. Consume becomes a no-op and any in-flight
// build bound to this session is discarded by the orchestrator.
func (r *GenerationRun) Cancel() {
	r.session.Cancel()
	r.logger.Info("generation run cancelled", map[string]any{
		"session_id": r.session.ID,
	})
}

// Finalize settles the run once the response is complete: it closes out
// the parser, reconciles against the full text, runs the settling build,
// then persists and notifies best-effort. Persistence and notification
// failures are logged, never returned; the project itself has settled.
func (r *GenerationRun) Finalize(ctx context.Context) (*ProjectResult, error) {
	fullText := r.parser.Finalize()

	outcome, err := r.cfg.Reconciler.Snapshot(ctx, fullText)
	if err != nil {
		return nil, fmt.Errorf("runtime: reconcile: %w", err)
	}

	result := &ProjectResult{
		Session:      r.session,
		Meta:         r.cfg.Store.Meta(),
		Files:        r.cfg.Store.GetFiles(),
		Outcome:      outcome,
		FallbackUsed: outcome == reconcile.OutcomeRecovered,
		EventCount:   r.parser.EventCount(),
	}

	if outcome == reconcile.OutcomePlainText {
		result.PlainText = fullText
		result.Duration = time.Since(r.started)
		r.logger.Info("generation run settled as plain text", map[string]any{
			"session_id": r.session.ID,
		})
		return result, nil
	}

	if r.cfg.Orchestrator != nil {
		buildResult, err := r.cfg.Orchestrator.Rebuild(ctx, r.cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("runtime: settling build: %w", err)
		}
		result.Build = buildResult
	}

	result.Duration = time.Since(r.started)
	r.persist(ctx, result)
	r.publish(ctx, result)

	r.logger.Info("generation run settled", map[string]any{
		"session_id": r.session.ID,
		"outcome":    string(outcome),
		"files":      len(result.Files),
		"events":     result.EventCount,
	})
	return result, nil
}

// Execute is a convenience loop that reads the full response from rd in
// chunkSize pieces and finalizes when the reader drains.
func (r *GenerationRun) Execute(ctx context.Context, rd io.Reader, chunkSize int) (*ProjectResult, error) {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rd.Read(buf)
		if n > 0 {
			r.Consume(string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("runtime: read response: %w", err)
		}
	}
	return r.Finalize(ctx)
}

// persist writes the settled snapshot, detached from the run's context so
// cancellation after settling cannot lose a finished project.
func (r *GenerationRun) persist(ctx context.Context, result *ProjectResult) {
	if r.cfg.Persister == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	snap := r.cfg.Store.Snapshot(r.session.ID, time.Now())
	if err := r.cfg.Persister.Save(saveCtx, snap); err != nil {
		r.cfg.Collector.IncPersistFailure()
		r.logger.Error("snapshot persistence failed", map[string]any{
			"session_id": r.session.ID,
			"error":      err.Error(),
		})
		return
	}
	r.cfg.Collector.IncPersistWrite()
}

// publish sends the completion notification, also detached from the
// run's context.
func (r *GenerationRun) publish(ctx context.Context, result *ProjectResult) {
	if r.cfg.Adapter == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := &adapter.ProjectCompletedEvent{
		Version:    types.Version,
		EventType:  "project_completed",
		SessionID:  r.session.ID,
		Project:    result.Meta.Name,
		Framework:  string(result.Meta.Framework),
		FileCount:  len(result.Files),
		Outcome:    string(result.Outcome),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		DurationMs: result.Duration.Milliseconds(),
	}
	if err := r.cfg.Adapter.Publish(pubCtx, event); err != nil {
		r.logger.Error("completion notification failed", map[string]any{
			"session_id": r.session.ID,
			"error":      err.Error(),
		})
	}
}

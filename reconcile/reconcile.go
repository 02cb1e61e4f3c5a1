// Package reconcile closes the gap between the incremental parser's view
// of a generation and the full response text, recovering files whenever
// the streaming path produced nothing.
package reconcile

import (
	"context"
	"time"

	"github.com/pithecene-io/foundry/log"
	"github.com/pithecene-io/foundry/marker"
	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/stream"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// DefaultGrace is how long Snapshot waits for straggling commits before
// deciding the incremental path really produced nothing.
const DefaultGrace = 150 * time.Millisecond

// Outcome describes what the reconciliation pass decided.
type Outcome string

const (
	// OutcomeStreamed means the incremental parser already populated the
	// store; nothing was recovered.
	OutcomeStreamed Outcome = "streamed"
	// OutcomeRecovered means the fallback extractor recovered files from
	// the full response text.
	OutcomeRecovered Outcome = "recovered"
	// OutcomePlainText means no structured content could be found at all.
	OutcomePlainText Outcome = "plain_text"
)

// Reconciler arbitrates between the streaming parser's output and a
// whole-text fallback extraction over the same response.
type Reconciler struct {
	store     *vfs.Store
	grace     time.Duration
	logger    *log.Logger
	collector *metrics.Collector
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithGrace overrides the straggler grace period. Zero disables waiting.
func WithGrace(d time.Duration) Option {
	return func(r *Reconciler) { r.grace = d }
}

// WithLogger attaches a logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(r *Reconciler) { r.collector = c }
}

// New creates a Reconciler over the given store.
func New(store *vfs.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		grace:  DefaultGrace,
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot settles the store's final contents for a finished generation.
//
// If the store already holds files the streaming path won and the full
// text is ignored. Otherwise Snapshot waits out the grace period to give
// in-flight commits a chance to land, re-checks, and only then runs the
// fallback extractor over fullText. Recovered files are written with
// fallback provenance so downstream consumers can tell the paths apart.
func (r *Reconciler) Snapshot(ctx context.Context, fullText string) (Outcome, error) {
	if r.store.Len() > 0 {
		return OutcomeStreamed, nil
	}
	if fullText == "" {
		return OutcomePlainText, nil
	}

	if r.grace > 0 {
		select {
		case <-ctx.Done():
			return OutcomePlainText, ctx.Err()
		case <-time.After(r.grace):
		}
		if r.store.Len() > 0 {
			r.logger.Debug("stragglers landed during grace period", map[string]any{
				"files": r.store.Len(),
			})
			return OutcomeStreamed, nil
		}
	}

	if marker.CountFileMarkers(fullText) == 0 {
		return OutcomePlainText, nil
	}

	files := stream.Extract(fullText)
	if len(files) == 0 {
		return OutcomePlainText, nil
	}

	r.collector.IncFallbackRun()
	recovered := 0
	for _, f := range files {
		err := r.store.CreateFile(f.Path, f.Content,
			vfs.WithLanguage(f.Language),
			vfs.WithEntryPoint(f.IsEntryPoint),
			vfs.WithProvenance(types.ProvenanceFallback),
		)
		if err != nil {
			r.logger.Warn("fallback file rejected", map[string]any{
				"path":  f.Path,
				"error": err.Error(),
			})
			continue
		}
		recovered++
	}
	r.collector.AddFallbackFiles(recovered)

	r.logger.Info("recovered files from full text", map[string]any{
		"files": r.store.Len(),
	})
	return OutcomeRecovered, nil
}

// Package stream converts raw generation text into virtual file store
// mutations. Two drivers share the marker grammar: the incremental Parser
// consumes chunks in arrival order, and Extract re-scans complete text when
// the incremental path produced nothing usable.
package stream

import (
	"fmt"
	"strings"

	"github.com/pithecene-io/foundry/log"
	"github.com/pithecene-io/foundry/marker"
	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// Observer receives every accepted stream event as it is committed. It must
// be non-blocking; a panicking observer is recovered and logged, never
// allowed to abort parsing.
type Observer func(types.StreamEvent)

// Drop reasons recorded against the metrics collector.
const (
	dropDuplicateProjectStart = "duplicate_project_start"
	dropDuplicateProjectEnd   = "duplicate_project_end"
	dropDuplicateFileStart    = "duplicate_file_start"
	dropInvalidPath           = "invalid_path"
	dropMalformedDependency   = "malformed_dependency"
	dropUnmatchedFileEnd      = "unmatched_file_end"
)

type parserState int

const (
	stateIdle parserState = iota
	stateFileBody
)

// Parser is the incremental protocol state machine. Consume is called once
// per arriving fragment, in order, at most once per byte of the stream.
// Parser is not safe for concurrent use; the pipeline feeds it from a single
// goroutine.
type Parser struct {
	store     FileStore
	obs       Observer
	logger    *log.Logger
	collector *metrics.Collector

	seq     int64
	pending string
	raw     strings.Builder

	state       parserState
	activePath  string
	activeLang  string
	activeEntry bool
	active      strings.Builder

	projectOpened bool
	projectEnded  bool
}

// FileStore is the narrow write surface the parser needs from the virtual
// file store. *vfs.Store satisfies it; tests may substitute a recording
// implementation.
type FileStore interface {
	CreateFile(path, content string, opts ...vfs.FileOption) error
	SetProjectName(name string)
	SetDependency(name, version string)
}

// Option configures a Parser.
type Option func(*Parser)

// WithObserver installs the event observer callback.
func WithObserver(fn Observer) Option {
	return func(p *Parser) { p.obs = fn }
}

// WithLogger installs a logger. Defaults to a no-op logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithCollector installs a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(p *Parser) { p.collector = c }
}

// NewParser creates a parser writing into store.
func NewParser(store FileStore, opts ...Option) *Parser {
	p := &Parser{
		store:  store,
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Consume feeds one text fragment to the state machine. Events are applied
// to the store strictly in arrival order.
func (p *Parser) Consume(chunk string) {
	if chunk == "" {
		return
	}
	p.raw.WriteString(chunk)
	p.pending += chunk
	p.drain()
}

// drain processes every complete marker in the pending buffer, then holds
// back a partial trailing marker for the next chunk.
func (p *Parser) drain() {
	for {
		tok, start, end, ok := marker.FindNext(p.pending, 0)
		if !ok {
			break
		}
		p.content(p.pending[:start])
		p.pending = p.pending[end:]
		p.apply(tok)
	}

	tail := marker.PartialTailIndex(p.pending)
	if tail < 0 {
		p.content(p.pending)
		p.pending = ""
		return
	}
	p.content(p.pending[:tail])
	p.pending = p.pending[tail:]
}

// content routes plain text. Inside a file body it accumulates and emits a
// file_content event; outside, it is discarded per protocol.
func (p *Parser) content(text string) {
	if text == "" || p.state != stateFileBody {
		return
	}
	p.active.WriteString(text)
	p.emit(types.StreamEvent{
		Type:  types.EventFileContent,
		Path:  p.activePath,
		Chunk: text,
	})
}

// apply dispatches one recognized marker token.
func (p *Parser) apply(tok marker.Token) {
	switch tok.Kind {
	case marker.KindProjectStart:
		if p.projectOpened {
			p.drop(dropDuplicateProjectStart, map[string]any{"name": tok.Name})
			return
		}
		p.projectOpened = true
		p.store.SetProjectName(tok.Name)
		p.emit(types.StreamEvent{Type: types.EventProjectStart, Name: tok.Name})

	case marker.KindFileOpen:
		if !types.ValidPath(tok.Path) {
			p.drop(dropInvalidPath, map[string]any{"path": tok.Path})
			return
		}
		if p.state == stateFileBody {
			if tok.Path == p.activePath {
				p.drop(dropDuplicateFileStart, map[string]any{"path": tok.Path})
				return
			}
			// A new file opening while another is active closes the first;
			// truncated close markers must not lose the earlier content.
			p.commitActive()
		}
		p.state = stateFileBody
		p.activePath = tok.Path
		p.activeLang = tok.Language
		p.activeEntry = tok.Entry
		p.active.Reset()
		p.emit(types.StreamEvent{
			Type:     types.EventFileStart,
			Path:     tok.Path,
			Language: tok.Language,
			Entry:    tok.Entry,
		})

	case marker.KindFileClose:
		if p.state != stateFileBody {
			p.drop(dropUnmatchedFileEnd, nil)
			return
		}
		p.commitActive()

	case marker.KindDependency:
		if tok.Dependency == "" || tok.Version == "" {
			p.drop(dropMalformedDependency, map[string]any{
				"name":    tok.Dependency,
				"version": tok.Version,
			})
			return
		}
		p.store.SetDependency(tok.Dependency, tok.Version)
		p.emit(types.StreamEvent{
			Type:       types.EventDependency,
			Dependency: tok.Dependency,
			DepVersion: tok.Version,
		})

	case marker.KindProjectEnd:
		if p.projectEnded {
			p.drop(dropDuplicateProjectEnd, nil)
			return
		}
		p.projectEnded = true
		p.emit(types.StreamEvent{Type: types.EventProjectEnd})
	}
}

// commitActive writes the accumulated file body to the store and emits
// file_end. Guaranteed to follow the matching file_start and all interleaved
// file_content events for that path.
func (p *Parser) commitActive() {
	path := p.activePath
	lang := p.activeLang
	entry := p.activeEntry
	body := p.active.String()

	p.state = stateIdle
	p.activePath = ""
	p.activeLang = ""
	p.activeEntry = false
	p.active.Reset()

	if err := p.store.CreateFile(path, body,
		vfs.WithLanguage(lang),
		vfs.WithEntryPoint(entry),
		vfs.WithProvenance(types.ProvenanceLLM),
	); err != nil {
		// Path was validated at file_start; a failure here is a store-level
		// surprise worth logging, still not worth aborting the stream.
		p.logger.Warn("file commit failed", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return
	}

	p.collector.IncFileCommitted()
	p.emit(types.StreamEvent{Type: types.EventFileEnd, Path: path})
}

// emit assigns the sequence number, records metrics, and forwards the event
// to the observer. Observer panics are contained here.
func (p *Parser) emit(ev types.StreamEvent) {
	p.seq++
	ev.Seq = p.seq
	p.collector.IncEventAccepted(string(ev.Type))

	if p.obs == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("observer panicked", map[string]any{
				"event_type": string(ev.Type),
				"recover":    fmt.Sprint(r),
			})
		}
	}()
	p.obs(ev)
}

// drop records a silently discarded event. The model's output is not
// schema-guaranteed; drops are expected, recoverable, and never raised.
func (p *Parser) drop(reason string, fields map[string]any) {
	p.collector.IncEventDropped(reason)
	p.logger.Debug("event dropped", mergeFields(fields, map[string]any{"reason": reason}))
}

func mergeFields(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Finalize closes the stream: a file left open by a truncated stream is
// committed, and an incomplete trailing marker is discarded (it was intended
// as protocol, not content). Returns the full accumulated raw text for
// fallback extraction.
func (p *Parser) Finalize() string {
	p.pending = ""
	if p.state == stateFileBody {
		p.commitActive()
	}
	return p.raw.String()
}

// EventCount returns the number of events accepted so far.
func (p *Parser) EventCount() int64 {
	return p.seq
}

// ProjectEnded reports whether the terminal project_end marker was seen.
func (p *Parser) ProjectEnded() bool {
	return p.projectEnded
}

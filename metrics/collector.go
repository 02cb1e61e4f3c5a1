// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during one generation cycle. It is a
// leaf package with no internal dependencies, and every increment method is
// nil-receiver safe so instrumentation points never need guards.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters. Returned by
// Collector.Snapshot(); safe to read concurrently after creation.
type Snapshot struct {
	// Stream ingestion
	EventsAccepted  int64
	AcceptedByType  map[string]int64
	EventsDropped   int64
	DroppedByReason map[string]int64

	// Virtual file store
	FilesCommitted int64

	// Fallback extraction
	FallbackRuns  int64
	FallbackFiles int64

	// Builds
	BuildsStarted         int64
	BuildsSucceeded       int64
	BuildsWithDiagnostics int64
	BuildsTimedOut        int64

	// Persistence boundary
	PersistWrites   int64
	PersistFailures int64

	// Dimensions (informational, set at construction)
	SessionID string
	Project   string
}

// Collector accumulates metrics during one generation cycle.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	eventsAccepted  int64
	acceptedByType  map[string]int64
	eventsDropped   int64
	droppedByReason map[string]int64

	filesCommitted int64

	fallbackRuns  int64
	fallbackFiles int64

	buildsStarted         int64
	buildsSucceeded       int64
	buildsWithDiagnostics int64
	buildsTimedOut        int64

	persistWrites   int64
	persistFailures int64

	sessionID string
	project   string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(sessionID, project string) *Collector {
	return &Collector{
		acceptedByType:  make(map[string]int64),
		droppedByReason: make(map[string]int64),
		sessionID:       sessionID,
		project:         project,
	}
}

// IncEventAccepted records an accepted stream event.
func (c *Collector) IncEventAccepted(eventType string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsAccepted++
	c.acceptedByType[eventType]++
	c.mu.Unlock()
}

// IncEventDropped records a silently dropped event with its reason.
func (c *Collector) IncEventDropped(reason string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsDropped++
	c.droppedByReason[reason]++
	c.mu.Unlock()
}

// IncFileCommitted records a file committed to the virtual file store.
func (c *Collector) IncFileCommitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.filesCommitted++
	c.mu.Unlock()
}

// IncFallbackRun records one invocation of the fallback extractor.
func (c *Collector) IncFallbackRun() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fallbackRuns++
	c.mu.Unlock()
}

// AddFallbackFiles records files recovered by fallback extraction.
func (c *Collector) AddFallbackFiles(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fallbackFiles += int64(n)
	c.mu.Unlock()
}

// IncBuildStarted records a build entering the orchestrator.
func (c *Collector) IncBuildStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsStarted++
	c.mu.Unlock()
}

// IncBuildSucceeded records a build that produced an artifact.
func (c *Collector) IncBuildSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsSucceeded++
	c.mu.Unlock()
}

// IncBuildWithDiagnostics records a successful build carrying diagnostics.
func (c *Collector) IncBuildWithDiagnostics() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsWithDiagnostics++
	c.mu.Unlock()
}

// IncBuildTimedOut records a build abandoned by the safety window.
func (c *Collector) IncBuildTimedOut() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsTimedOut++
	c.mu.Unlock()
}

// IncPersistWrite records a successful snapshot write.
func (c *Collector) IncPersistWrite() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.persistWrites++
	c.mu.Unlock()
}

// IncPersistFailure records a failed snapshot write.
func (c *Collector) IncPersistFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.persistFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{
			AcceptedByType:  map[string]int64{},
			DroppedByReason: map[string]int64{},
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	accepted := make(map[string]int64, len(c.acceptedByType))
	for k, v := range c.acceptedByType {
		accepted[k] = v
	}
	dropped := make(map[string]int64, len(c.droppedByReason))
	for k, v := range c.droppedByReason {
		dropped[k] = v
	}

	return Snapshot{
		EventsAccepted:        c.eventsAccepted,
		AcceptedByType:        accepted,
		EventsDropped:         c.eventsDropped,
		DroppedByReason:       dropped,
		FilesCommitted:        c.filesCommitted,
		FallbackRuns:          c.fallbackRuns,
		FallbackFiles:         c.fallbackFiles,
		BuildsStarted:         c.buildsStarted,
		BuildsSucceeded:       c.buildsSucceeded,
		BuildsWithDiagnostics: c.buildsWithDiagnostics,
		BuildsTimedOut:        c.buildsTimedOut,
		PersistWrites:         c.persistWrites,
		PersistFailures:       c.persistFailures,
		SessionID:             c.sessionID,
		Project:               c.project,
	}
}

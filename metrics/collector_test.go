package metrics

import (
	"sync"
	"testing"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector("sess-1", "Todo")

	c.IncEventAccepted("file_start")
	c.IncEventAccepted("file_start")
	c.IncEventAccepted("project_end")
	c.IncEventDropped("invalid_path")
	c.IncFileCommitted()
	c.IncFallbackRun()
	c.AddFallbackFiles(3)
	c.IncBuildStarted()
	c.IncBuildSucceeded()
	c.IncBuildTimedOut()
	c.IncPersistWrite()
	c.IncPersistFailure()

	snap := c.Snapshot()

	if snap.EventsAccepted != 3 {
		t.Errorf("EventsAccepted = %d, want 3", snap.EventsAccepted)
	}
	if snap.AcceptedByType["file_start"] != 2 {
		t.Errorf("AcceptedByType[file_start] = %d, want 2", snap.AcceptedByType["file_start"])
	}
	if snap.EventsDropped != 1 || snap.DroppedByReason["invalid_path"] != 1 {
		t.Errorf("dropped = %d by %v", snap.EventsDropped, snap.DroppedByReason)
	}
	if snap.FilesCommitted != 1 {
		t.Errorf("FilesCommitted = %d, want 1", snap.FilesCommitted)
	}
	if snap.FallbackRuns != 1 || snap.FallbackFiles != 3 {
		t.Errorf("fallback = %d runs / %d files", snap.FallbackRuns, snap.FallbackFiles)
	}
	if snap.BuildsStarted != 1 || snap.BuildsSucceeded != 1 || snap.BuildsTimedOut != 1 {
		t.Errorf("builds = %d/%d/%d", snap.BuildsStarted, snap.BuildsSucceeded, snap.BuildsTimedOut)
	}
	if snap.PersistWrites != 1 || snap.PersistFailures != 1 {
		t.Errorf("persist = %d/%d", snap.PersistWrites, snap.PersistFailures)
	}
	if snap.SessionID != "sess-1" || snap.Project != "Todo" {
		t.Errorf("dimensions = %q/%q", snap.SessionID, snap.Project)
	}
}

func TestCollectorNilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.IncEventAccepted("file_start")
	c.IncEventDropped("x")
	c.IncFileCommitted()
	c.IncFallbackRun()
	c.AddFallbackFiles(1)
	c.IncBuildStarted()
	c.IncBuildSucceeded()
	c.IncBuildWithDiagnostics()
	c.IncBuildTimedOut()
	c.IncPersistWrite()
	c.IncPersistFailure()

	snap := c.Snapshot()
	if snap.EventsAccepted != 0 {
		t.Errorf("nil collector EventsAccepted = %d", snap.EventsAccepted)
	}
	if snap.AcceptedByType == nil {
		t.Error("nil collector snapshot has nil map")
	}
}

func TestCollectorConcurrentIncrements(t *testing.T) {
	c := NewCollector("sess-1", "")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IncEventAccepted("file_content")
			}
		}()
	}
	wg.Wait()

	if snap := c.Snapshot(); snap.EventsAccepted != 800 {
		t.Errorf("EventsAccepted = %d, want 800", snap.EventsAccepted)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCollector("sess-1", "")
	c.IncEventAccepted("file_start")

	snap := c.Snapshot()
	snap.AcceptedByType["file_start"] = 99

	if again := c.Snapshot(); again.AcceptedByType["file_start"] != 1 {
		t.Errorf("snapshot mutation leaked into collector: %v", again.AcceptedByType)
	}
}

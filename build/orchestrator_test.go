package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// blockingBundler ignores its context until released, simulating a wedged
// bundle phase.
type blockingBundler struct {
	release chan struct{}
}

func (b *blockingBundler) Bundle(_ context.Context, _ []types.VirtualFile, _ types.ProjectMeta) (*types.BuildResult, error) {
	<-b.release
	return &types.BuildResult{Success: true, HTML: "late"}, nil
}

// slowBundler waits for a signal before completing but does honor
// cancellation.
type slowBundler struct {
	started chan struct{}
	release chan struct{}
}

func (b *slowBundler) Bundle(ctx context.Context, _ []types.VirtualFile, _ types.ProjectMeta) (*types.BuildResult, error) {
	close(b.started)
	select {
	case <-b.release:
		return &types.BuildResult{Success: true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTimeoutsValidate(t *testing.T) {
	tests := []struct {
		name    string
		t       Timeouts
		wantErr bool
	}{
		{"defaults", DefaultTimeouts(), false},
		{"safety below sum", Timeouts{Init: time.Second, Bundle: time.Second, Safety: time.Second}, true},
		{"safety equals sum", Timeouts{Init: time.Second, Bundle: time.Second, Safety: 2 * time.Second}, true},
		{"zero init", Timeouts{Init: 0, Bundle: time.Second, Safety: 5 * time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRebuildEmptyStore(t *testing.T) {
	o, err := NewOrchestrator(NewPreviewBundler())
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	result, err := o.Rebuild(context.Background(), vfs.NewStore())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.Success {
		t.Error("empty store should still produce a successful build")
	}
	if result.HTML == "" {
		t.Error("empty build should carry an informational preview")
	}
}

func TestRebuildSingleFlight(t *testing.T) {
	b := &slowBundler{started: make(chan struct{}), release: make(chan struct{})}
	o, err := NewOrchestrator(b)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	store := vfs.NewStore()
	first := make(chan error, 1)
	go func() {
		_, err := o.Rebuild(context.Background(), store)
		first <- err
	}()

	<-b.started
	if !o.IsBuilding() {
		t.Error("IsBuilding() = false while a rebuild is running")
	}
	if _, err := o.Rebuild(context.Background(), store); !errors.Is(err, ErrBuildInFlight) {
		t.Errorf("concurrent Rebuild() error = %v, want ErrBuildInFlight", err)
	}

	close(b.release)
	if err := <-first; err != nil {
		t.Errorf("first Rebuild() error = %v", err)
	}
	if o.IsBuilding() {
		t.Error("IsBuilding() = true after rebuild finished")
	}
}

func TestRebuildSafetyTimeout(t *testing.T) {
	b := &blockingBundler{release: make(chan struct{})}
	defer close(b.release)

	collector := metrics.NewCollector("", "")
	o, err := NewOrchestrator(b,
		WithTimeouts(Timeouts{
			Init:   10 * time.Millisecond,
			Bundle: 20 * time.Millisecond,
			Safety: 50 * time.Millisecond,
		}),
		WithBuildCollector(collector),
	)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	result, err := o.Rebuild(context.Background(), vfs.NewStore())
	if err != nil {
		t.Fatalf("Rebuild() error = %v, want degraded result", err)
	}
	if !result.HasDiagnostics() {
		t.Error("timed-out build should carry a diagnostic")
	}
	if collector.Snapshot().BuildsTimedOut != 1 {
		t.Error("timeout should be recorded in metrics")
	}
	if o.IsBuilding() {
		t.Error("orchestrator should accept new rebuilds after a timeout")
	}
}

func TestRebuildBundleTimeoutDegrades(t *testing.T) {
	b := &slowBundler{started: make(chan struct{}), release: make(chan struct{})}
	defer close(b.release)

	o, err := NewOrchestrator(b, WithTimeouts(Timeouts{
		Init:   10 * time.Millisecond,
		Bundle: 20 * time.Millisecond,
		Safety: 100 * time.Millisecond,
	}))
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	result, err := o.Rebuild(context.Background(), vfs.NewStore())
	if err != nil {
		t.Fatalf("Rebuild() error = %v, want degraded result", err)
	}
	if !result.HasDiagnostics() {
		t.Error("bundle timeout should degrade to a diagnostic result")
	}
}

func TestResetCancelsStaleBuild(t *testing.T) {
	b := &slowBundler{started: make(chan struct{}), release: make(chan struct{})}
	defer close(b.release)

	o, err := NewOrchestrator(b)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	store := vfs.NewStore()
	done := make(chan struct{})
	go func() {
		o.Rebuild(context.Background(), store)
		close(done)
	}()
	<-b.started

	o.Reset(types.NewSession())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale rebuild did not unwind after Reset")
	}
	if o.IsBuilding() {
		t.Error("new session must start without a stale in-flight flag")
	}
}

func TestRebuildDiagnosticsAreStillSuccess(t *testing.T) {
	store := vfs.NewStore()
	if err := store.CreateFile("/App.tsx", "import x from './Nope';",
		vfs.WithEntryPoint(true)); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	o, err := NewOrchestrator(NewPreviewBundler())
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	o.Reset(types.NewSession())

	result, err := o.Rebuild(context.Background(), store)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.Success {
		t.Error("diagnostics alone must not mark the build failed")
	}
	if !result.HasDiagnostics() {
		t.Error("unresolved import should surface as a diagnostic")
	}
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/foundry/adapter"
	redisadapter "github.com/pithecene-io/foundry/adapter/redis"
	"github.com/pithecene-io/foundry/adapter/webhook"
	"github.com/pithecene-io/foundry/build"
	"github.com/pithecene-io/foundry/cli/config"
	"github.com/pithecene-io/foundry/cli/tui"
	"github.com/pithecene-io/foundry/log"
	"github.com/pithecene-io/foundry/metrics"
	"github.com/pithecene-io/foundry/persist"
	"github.com/pithecene-io/foundry/reconcile"
	"github.com/pithecene-io/foundry/runtime"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// AssembleCommand returns the assemble command, the only command that
// executes a generation run.
func AssembleCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "input",
			Usage: "Response stream file ('-' or empty reads stdin)",
		},
		&cli.StringFlag{
			Name:  "project",
			Usage: "Project name override for logging and partitioning",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Read chunk size in bytes",
			Value: 4096,
		},
		&cli.StringFlag{
			Name:  "export-dir",
			Usage: "Materialize the settled project under this directory",
		},
		ConfigFlag,
		TUIFlag,
		QuietFlag,
	}
	flags = append(flags, StorageFlags()...)
	flags = append(flags, AdapterFlags()...)

	return &cli.Command{
		Name:   "assemble",
		Usage:  "Assemble a project from a streamed model response",
		Flags:  flags,
		Action: assembleAction,
	}
}

func assembleAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	input, closeInput, err := openInput(c.String("input"))
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer closeInput()

	project := c.String("project")
	if project == "" {
		project = cfg.Project
	}

	return runAssemble(c, cfg, vfs.NewStore(), input, project)
}

// runAssemble wires the run's collaborators and drives it to completion.
func runAssemble(c *cli.Context, cfg *config.Config, store *vfs.Store, input io.Reader, project string) error {
	logger := log.NewLogger(nil, project)
	defer func() { _ = logger.Sync() }()

	collector := metrics.NewCollector("", project)

	timeouts := build.DefaultTimeouts()
	if cfg.Build.InitTimeout.Duration > 0 {
		timeouts.Init = cfg.Build.InitTimeout.Duration
	}
	if cfg.Build.BundleTimeout.Duration > 0 {
		timeouts.Bundle = cfg.Build.BundleTimeout.Duration
	}
	if cfg.Build.SafetyTimeout.Duration > 0 {
		timeouts.Safety = cfg.Build.SafetyTimeout.Duration
	}
	orch, err := build.NewOrchestrator(build.NewPreviewBundler(),
		build.WithTimeouts(timeouts),
		build.WithBuildLogger(logger),
		build.WithBuildCollector(collector),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid build timeouts: %v", err), exitConfigError)
	}

	reconcilerOpts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithCollector(collector),
	}
	if cfg.Sync.GracePeriod.Duration > 0 {
		reconcilerOpts = append(reconcilerOpts, reconcile.WithGrace(cfg.Sync.GracePeriod.Duration))
	}

	persister, closePersister, err := buildStore(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer closePersister()

	notify, closeAdapter, err := buildAdapter(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer closeAdapter()

	runCfg := runtime.Config{
		Store:        store,
		Orchestrator: orch,
		Reconciler:   reconcile.New(store, reconcilerOpts...),
		Persister:    persister,
		Adapter:      notify,
		Logger:       logger,
		Collector:    collector,
	}

	var events chan types.StreamEvent
	tuiDone := make(chan error, 1)
	if c.Bool("tui") {
		events = make(chan types.StreamEvent, 256)
		runCfg.Observer = func(ev types.StreamEvent) {
			select {
			case events <- ev:
			default:
				// A stalled terminal must not stall ingestion.
			}
		}
		go func() { tuiDone <- tui.RunProgress(events) }()
	}

	run, err := runtime.NewGenerationRun(runCfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		run.Cancel()
		cancel()
	}()

	start := time.Now()
	result, err := run.Execute(ctx, input, c.Int("chunk-size"))
	if events != nil {
		close(events)
		<-tuiDone
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("assembly failed: %v", err), exitRunError)
	}

	if dir := c.String("export-dir"); dir != "" {
		snap := store.Snapshot(run.Session().ID, time.Now())
		if err := persist.NewExporter(dir).Export(snap); err != nil {
			return cli.Exit(fmt.Sprintf("export failed: %v", err), exitRunError)
		}
	}

	if !c.Bool("quiet") {
		printResult(result, time.Since(start))
	}
	return cli.Exit("", exitSuccess)
}

// loadConfig reads foundry.yaml when --config is given, otherwise returns
// an empty config so flags and defaults apply.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// openInput opens the response source: a file, or stdin for "-"/empty.
func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open input %q: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// buildStore constructs the snapshot persister from flags and config.
// Backend "none" disables persistence.
func buildStore(c *cli.Context, cfg *config.Config) (runtime.Persister, func(), error) {
	backend := c.String("storage-backend")
	if backend == "none" && cfg.Storage.Backend != "" {
		backend = cfg.Storage.Backend
	}
	dataset := c.String("storage-dataset")
	if dataset == "foundry" && cfg.Storage.Dataset != "" {
		dataset = cfg.Storage.Dataset
	}
	path := c.String("storage-path")
	if path == "" {
		path = cfg.Storage.Path
	}

	noop := func() {}
	switch backend {
	case "none", "":
		return nil, noop, nil

	case "fs":
		if path == "" {
			return nil, nil, fmt.Errorf("fs storage requires --storage-path")
		}
		st, err := persist.NewFSStore(dataset, path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil

	case "s3":
		bucket, prefix := cfg.Storage.Bucket, cfg.Storage.Prefix
		if path != "" {
			bucket, prefix = persist.ParseS3Path(path)
		}
		st, err := persist.NewS3Store(dataset, persist.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       firstNonEmpty(c.String("storage-s3-region"), cfg.Storage.Region),
			Endpoint:     firstNonEmpty(c.String("storage-s3-endpoint"), cfg.Storage.Endpoint),
			UsePathStyle: c.Bool("storage-s3-path-style") || cfg.Storage.S3PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (must be fs, s3, or none)", backend)
	}
}

// buildAdapter constructs the completion notification adapter.
// Type "none" disables notification.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, func(), error) {
	kind := c.String("adapter")
	if kind == "none" && cfg.Adapter.Type != "" {
		kind = cfg.Adapter.Type
	}
	url := firstNonEmpty(c.String("adapter-url"), cfg.Adapter.URL)

	noop := func() {}
	switch kind {
	case "none", "":
		return nil, noop, nil

	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := webhook.New(webhook.Config{
			URL:     url,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, func() { _ = a.Close() }, nil

	case "redis":
		retries := redisadapter.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := redisadapter.New(redisadapter.Config{
			URL:     url,
			Channel: firstNonEmpty(c.String("adapter-channel"), cfg.Adapter.Channel),
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, func() { _ = a.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown adapter %q (must be webhook, redis, or none)", kind)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// printResult writes a human-readable run summary to stdout.
func printResult(result *runtime.ProjectResult, elapsed time.Duration) {
	switch result.Outcome {
	case reconcile.OutcomePlainText:
		fmt.Printf("No project detected; response was plain text (%d bytes).\n", len(result.PlainText))
		return
	case reconcile.OutcomeRecovered:
		fmt.Println("Stream parsing produced nothing; project recovered from full text.")
	}

	name := result.Meta.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Project %s settled in %s\n", name, elapsed.Round(time.Millisecond))
	fmt.Printf("  files: %d  events: %d  framework: %s\n",
		len(result.Files), result.EventCount, result.Meta.Framework)
	for _, f := range result.Files {
		entry := ""
		if f.IsEntryPoint {
			entry = " (entry)"
		}
		fmt.Printf("  %s%s [%s]\n", f.Path, entry, f.Language)
	}
	if result.Build != nil && result.Build.HasDiagnostics() {
		fmt.Printf("  build diagnostics:\n")
		for _, d := range result.Build.Errors {
			if d.File != "" {
				fmt.Printf("    %s: %s\n", d.File, d.Message)
			} else {
				fmt.Printf("    %s\n", d.Message)
			}
		}
	}
}

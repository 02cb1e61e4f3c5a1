package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/foundry/persist"
)

// InspectCommand returns the inspect command. Read-only: loads a
// persisted project snapshot and displays it.
func InspectCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "session",
			Usage:    "Session ID of the snapshot to inspect",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Print this file's content instead of the summary",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the full snapshot as JSON",
		},
		ConfigFlag,
	}
	flags = append(flags, StorageFlags()...)

	return &cli.Command{
		Name:   "inspect",
		Usage:  "Inspect a persisted project snapshot",
		Flags:  flags,
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	persister, closeStore, err := buildStore(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer closeStore()

	store, ok := persister.(persist.Store)
	if !ok || store == nil {
		return cli.Exit("inspect requires a storage backend (--storage-backend fs or s3)", exitConfigError)
	}

	snap, err := store.Load(context.Background(), c.String("session"))
	if err != nil {
		if errors.Is(err, persist.ErrSnapshotNotFound) {
			return cli.Exit(fmt.Sprintf("no snapshot for session %s", c.String("session")), exitRunError)
		}
		return cli.Exit(fmt.Sprintf("load snapshot: %v", err), exitRunError)
	}

	if path := c.String("file"); path != "" {
		for _, f := range snap.Files {
			if f.Path == path {
				fmt.Print(f.Content)
				return cli.Exit("", exitSuccess)
			}
		}
		return cli.Exit(fmt.Sprintf("file %s not in snapshot", path), exitRunError)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return cli.Exit(fmt.Sprintf("encode snapshot: %v", err), exitRunError)
		}
		return cli.Exit("", exitSuccess)
	}

	name := snap.Meta.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Project %s (session %s)\n", name, snap.SessionID)
	fmt.Printf("  framework: %s  revision: %d  saved: %s\n",
		snap.Meta.Framework, snap.Revision, snap.SavedAt.Format("2006-01-02 15:04:05 MST"))
	for _, f := range snap.Files {
		entry := ""
		if f.IsEntryPoint {
			entry = " (entry)"
		}
		fmt.Printf("  %s%s [%s] %d bytes (%s)\n",
			f.Path, entry, f.Language, len(f.Content), f.GeneratedBy)
	}
	deps := make([]string, 0, len(snap.Meta.Dependencies))
	for dep := range snap.Meta.Dependencies {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	for _, dep := range deps {
		fmt.Printf("  dep %s@%s\n", dep, snap.Meta.Dependencies[dep])
	}
	return cli.Exit("", exitSuccess)
}

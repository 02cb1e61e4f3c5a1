package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/foundry/persist"
	"github.com/pithecene-io/foundry/stream"
	"github.com/pithecene-io/foundry/types"
	"github.com/pithecene-io/foundry/vfs"
)

// ExtractCommand returns the extract command: a one-shot batch pass of
// the whole-text extractor over a saved response, without streaming,
// builds, or side effects.
func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract project files from a complete response text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "Response text file ('-' or empty reads stdin)",
			},
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "Write extracted files under this directory",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print extracted files as JSON instead of a summary",
			},
		},
		Action: extractAction,
	}
}

func extractAction(c *cli.Context) error {
	input, closeInput, err := openInput(c.String("input"))
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer closeInput()

	text, err := io.ReadAll(input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read input: %v", err), exitRunError)
	}

	files := stream.Extract(string(text))
	if len(files) == 0 {
		return cli.Exit("no project files found in input", exitRunError)
	}

	if dir := c.String("export-dir"); dir != "" {
		store := vfs.NewStore()
		for _, f := range files {
			if err := store.CreateFile(f.Path, f.Content,
				vfs.WithLanguage(f.Language),
				vfs.WithEntryPoint(f.IsEntryPoint),
				vfs.WithProvenance(types.ProvenanceFallback),
			); err != nil {
				return cli.Exit(fmt.Sprintf("stage %s: %v", f.Path, err), exitRunError)
			}
		}
		snap := store.Snapshot("", time.Now())
		if err := persist.NewExporter(dir).Export(snap); err != nil {
			return cli.Exit(fmt.Sprintf("export failed: %v", err), exitRunError)
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(files); err != nil {
			return cli.Exit(fmt.Sprintf("encode output: %v", err), exitRunError)
		}
		return cli.Exit("", exitSuccess)
	}

	fmt.Printf("Extracted %d file(s):\n", len(files))
	for _, f := range files {
		entry := ""
		if f.IsEntryPoint {
			entry = " (entry)"
		}
		fmt.Printf("  %s%s [%s] %d bytes\n", f.Path, entry, f.Language, len(f.Content))
	}
	return cli.Exit("", exitSuccess)
}

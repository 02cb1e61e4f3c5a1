// Package cmd provides CLI commands for the foundry binary.
package cmd

import "github.com/urfave/cli/v2"

// Exit codes for foundry commands.
const (
	exitSuccess     = 0
	exitRunError    = 1
	exitConfigError = 2
)

// Shared flags.
var (
	// ConfigFlag points at a foundry.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to foundry.yaml config file",
	}

	// TUIFlag enables the Bubble Tea progress view.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show a live progress view while assembling",
	}

	// QuietFlag suppresses the result summary.
	QuietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "Suppress result output",
	}
)

// StorageFlags returns the snapshot storage flags shared by commands
// that read or write persisted projects.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Snapshot storage backend: fs, s3, or none",
			Value: "none",
		},
		&cli.StringFlag{
			Name:  "storage-dataset",
			Usage: "Dataset name for snapshot storage",
			Value: "foundry",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-s3-region",
			Usage: "AWS region for the S3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-s3-endpoint",
			Usage: "Custom S3 endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}

// AdapterFlags returns the notification adapter flags.
func AdapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion notification adapter: webhook, redis, or none",
			Value: "none",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint URL (webhook: HTTP URL, redis: redis://...)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel (redis adapter only)",
		},
	}
}

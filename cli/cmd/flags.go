// Package cmd provides CLI commands for the couchpart binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect and frames.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, frames only)",
	}
)

// Input flag names.
const (
	configFlag   = "config"
	headerFlag   = "header"
	responseFlag = "response"
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// InputFlags returns the flags describing a document response input.
// Each call builds new flags; slice flags keep parsed values.
func InputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "Path to couchpart.yaml",
			EnvVars: []string{"COUCHPART_CONFIG"},
		},
		&cli.StringSliceFlag{
			Name:    headerFlag,
			Aliases: []string{"H"},
			Usage:   `Response header as "Name: value" (repeatable)`,
		},
		&cli.BoolFlag{
			Name:    responseFlag,
			Aliases: []string{"i"},
			Usage:   "Input is a raw HTTP response including status line and headers",
		},
	}
}

// Package main provides the couchpart CLI entrypoint.
//
// Usage:
//
//	couchpart <command> [options] <file|->
//
// Exit codes:
//   - 0: success
//   - 1: usage or I/O error
//   - 2: malformed response or frame stream
//   - 3: storage write or publish failure
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/couchpart/cli/cmd"
	"github.com/pithecene-io/couchpart/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:                      "couchpart",
		Usage:                     "Read CouchDB multipart document responses and extract attachments",
		Version:                   fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler:            exitErrHandler,
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			cmd.InspectCommand(),
			cmd.ExtractCommand(),
			cmd.FramesCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler prints err and exits with the code it carries.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(handleExit(err, os.Stderr))
}

// handleExit writes err's message to w and returns its exit code.
func handleExit(err error, w io.Writer) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		return code
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

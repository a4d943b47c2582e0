package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/couchpart/couch"
	"github.com/pithecene-io/couchpart/extract"
	"github.com/pithecene-io/couchpart/frame"
	"github.com/pithecene-io/couchpart/scan"
	"github.com/pithecene-io/couchpart/store"
)

// Exit codes.
const (
	exitSuccess       = 0
	exitFailure       = 1 // usage or I/O error
	exitParseError    = 2 // malformed response or frame stream
	exitStorageFailed = 3 // storage write or publish failure
)

// exitCode classifies err into an exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case isParseFailure(err):
		return exitParseError
	case isStorageFailure(err):
		return exitStorageFailed
	default:
		return exitFailure
	}
}

func isParseFailure(err error) bool {
	if scan.IsParseError(err) ||
		errors.Is(err, couch.ErrMissingHeader) ||
		errors.Is(err, couch.ErrNoDocumentPart) {
		return true
	}
	var frameErr *frame.FrameError
	return errors.As(err, &frameErr)
}

func isStorageFailure(err error) bool {
	switch extract.FailedStage(err) {
	case extract.StageDocument, extract.StageAttachment, extract.StagePublish:
		return true
	}
	return store.IsStorageError(err)
}

// exitError wraps err in a cli.ExitCoder carrying its exit code.
func exitError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return err
	}
	return cli.Exit(fmt.Sprintf("%s: %v", prefix, err), exitCode(err))
}

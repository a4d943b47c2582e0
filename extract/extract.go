// Package extract streams a document's attachments into a store.Sink and
// announces the result through an optional adapter.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/couchpart/adapter"
	"github.com/pithecene-io/couchpart/couch"
	"github.com/pithecene-io/couchpart/iox"
	"github.com/pithecene-io/couchpart/log"
	"github.com/pithecene-io/couchpart/metrics"
	"github.com/pithecene-io/couchpart/store"
	"github.com/pithecene-io/couchpart/types"
)

// Stages at which an extraction can fail.
const (
	StageDocument   = "document"
	StageRead       = "read"
	StageAttachment = "attachment"
	StagePublish    = "publish"
)

// Options configures one extraction.
type Options struct {
	// Sink receives the document and its attachments (required).
	Sink store.Sink
	// Adapter, if set, receives a DocumentExtractedEvent on success.
	Adapter adapter.Adapter
	// Collector records metrics. Nil disables metrics.
	Collector *metrics.Collector
	// Logger overrides the default stderr logger.
	Logger *log.Logger
	// RunID identifies the extraction. Empty generates a UUID.
	RunID string
	// Source names the input for logs.
	Source string
	// StoragePath is reported in the published event.
	StoragePath string
	// SkipDocument skips storing the document body.
	SkipDocument bool
}

// StageError reports the stage an extraction failed at.
type StageError struct {
	Stage string
	// Name is the attachment being processed, if any.
	Name string
	Err  error
}

func (e *StageError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: %v", e.Stage, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of a *StageError in err's chain, or "".
func FailedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Run extracts doc. Attachments are written in document order; extraction
// stops at the first failure. The report is returned even on failure and
// reflects the work done so far.
func Run(ctx context.Context, doc *couch.Document, opts Options) (*Report, error) {
	if opts.Sink == nil {
		return nil, errors.New("extract: sink is required")
	}

	start := time.Now()
	meta := &types.DocumentMeta{
		RunID: opts.RunID,
		DocID: doc.ID(),
		Rev:   doc.Revision(),
	}
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.DocID == "" {
		meta.DocID = types.UnknownDocID
	}
	if opts.Source != "" {
		meta.Source = &opts.Source
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(meta)
	}

	report := &Report{Meta: *meta, Attachments: []types.AttachmentInfo{}}
	key := store.Key{DocID: meta.DocID, Rev: meta.Rev}
	finish := func(err error) (*Report, error) {
		report.Duration = time.Since(start)
		return report, err
	}

	opts.Collector.IncDocumentRead()

	if !opts.SkipDocument {
		if err := opts.Sink.PutDocument(ctx, key, []byte(doc.Body())); err != nil {
			logger.Error("document write failed", map[string]any{"error": err.Error()})
			return finish(&StageError{Stage: StageDocument, Err: err})
		}
		report.DocumentPath = key.DocumentPath()
	}

	if cur := doc.Attachments(); cur != nil {
		for {
			if err := ctx.Err(); err != nil {
				return finish(&StageError{Stage: StageRead, Err: err})
			}
			ok, err := cur.Next()
			if err != nil {
				logger.Error("attachment read failed", map[string]any{
					"error":   err.Error(),
					"pending": cur.Pending(),
				})
				return finish(&StageError{Stage: StageRead, Name: firstOf(cur.Pending()), Err: err})
			}
			if !ok {
				break
			}

			name := cur.Name()
			content := iox.NewCountingReader(cur.Content())
			if err := opts.Sink.PutAttachment(ctx, key, name, content); err != nil {
				logger.Error("attachment write failed", map[string]any{
					"name":  name,
					"error": err.Error(),
				})
				return finish(&StageError{Stage: StageAttachment, Name: name, Err: err})
			}

			info := types.AttachmentInfo{
				Name:        name,
				ContentType: cur.Header().Get(couch.ContentTypeHeader),
				Bytes:       content.N(),
				Path:        key.AttachmentPath(name),
			}
			report.Attachments = append(report.Attachments, info)
			report.Bytes += info.Bytes
			opts.Collector.AddAttachment(info.Bytes)
			logger.Debug("attachment stored", map[string]any{
				"name":  name,
				"index": cur.Index(),
				"bytes": info.Bytes,
			})
		}

		if pending := cur.Pending(); len(pending) > 0 {
			report.Pending = pending
			opts.Collector.RecordMismatch(pending)
			logger.Warn("message carried fewer parts than attachment names", map[string]any{
				"pending": pending,
			})
		}
	}

	opts.Collector.IncDocumentExtracted()
	logger.Info("document extracted", map[string]any{
		"attachments": len(report.Attachments),
		"bytes":       report.Bytes,
	})

	if opts.Adapter != nil {
		report.Duration = time.Since(start)
		event := report.Event(opts.StoragePath, time.Now())
		if err := opts.Adapter.Publish(ctx, event); err != nil {
			opts.Collector.IncPublishFailure()
			logger.Error("publish failed", map[string]any{"error": err.Error()})
			return finish(&StageError{Stage: StagePublish, Err: err})
		}
		opts.Collector.IncPublishSuccess()
		report.Published = true
	}

	return finish(nil)
}

func firstOf(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

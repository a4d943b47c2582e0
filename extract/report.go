package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pithecene-io/couchpart/adapter"
	"github.com/pithecene-io/couchpart/iox"
	"github.com/pithecene-io/couchpart/types"
)

// Report describes one extraction.
type Report struct {
	Meta         types.DocumentMeta     `json:"meta" yaml:"meta"`
	DocumentPath string                 `json:"document_path,omitempty" yaml:"document_path,omitempty"`
	Attachments  []types.AttachmentInfo `json:"attachments" yaml:"attachments"`
	// Pending lists attachment names the message carried no part for.
	Pending   []string      `json:"pending,omitempty" yaml:"pending,omitempty"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Duration  time.Duration `json:"-" yaml:"-"`
	Published bool          `json:"published" yaml:"published"`
}

// Names returns the extracted attachment names in order.
func (r *Report) Names() []string {
	names := make([]string, len(r.Attachments))
	for i, a := range r.Attachments {
		names[i] = a.Name
	}
	return names
}

// Event builds the DocumentExtractedEvent for the report.
func (r *Report) Event(storagePath string, now time.Time) *adapter.DocumentExtractedEvent {
	return &adapter.DocumentExtractedEvent{
		Version:     types.Version,
		EventType:   adapter.EventTypeDocumentExtracted,
		RunID:       r.Meta.RunID,
		DocID:       r.Meta.DocID,
		Rev:         r.Meta.Rev,
		Attachments: r.Names(),
		Bytes:       r.Bytes,
		StoragePath: storagePath,
		Timestamp:   now.UTC().Format(time.RFC3339),
		DurationMs:  r.Duration.Milliseconds(),
		Pending:     r.Pending,
	}
}

// WriteReport writes the report as JSON to path. "-" writes to stderr.
func WriteReport(report *Report, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}
	if path == "-" {
		if err := writeReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := writeReportTo(report, f); err != nil {
		iox.DiscardClose(f)
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return f.Close()
}

func writeReportTo(report *Report, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

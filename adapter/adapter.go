// Package adapter defines the event-bus adapter boundary.
//
// Adapters notify downstream systems that a document's attachments were
// extracted. The extractor owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"time"
)

// EventTypeDocumentExtracted is the event_type of DocumentExtractedEvent.
const EventTypeDocumentExtracted = "document_extracted"

// DefaultBackoff is the base delay between publish retries.
// Attempt n (n >= 1) waits DefaultBackoff * 2^(n-1).
const DefaultBackoff = 500 * time.Millisecond

// DocumentExtractedEvent is the payload published after an extraction.
type DocumentExtractedEvent struct {
	Version     string   `json:"version"`
	EventType   string   `json:"event_type"` // always "document_extracted"
	RunID       string   `json:"run_id"`
	DocID       string   `json:"doc_id"`
	Rev         string   `json:"rev"`
	Attachments []string `json:"attachments"`
	Bytes       int64    `json:"bytes"`
	StoragePath string   `json:"storage_path"`
	Timestamp   string   `json:"timestamp"` // RFC 3339
	DurationMs  int64    `json:"duration_ms"`
	// Pending lists attachment names the message carried no part for.
	Pending []string `json:"pending,omitempty"`
}

// Adapter publishes extraction events to a downstream system.
type Adapter interface {
	// Publish sends an extraction event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *DocumentExtractedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the wait before retry attempt i (i >= 1).
func Backoff(base time.Duration, i int) time.Duration {
	if base <= 0 {
		base = DefaultBackoff
	}
	return time.Duration(1<<uint(i-1)) * base
}

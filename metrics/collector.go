// Package metrics provides per-run extraction metrics.
//
// The Collector accumulates counters while documents are read and their
// attachments are extracted. It is a leaf package with no internal
// dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Documents
	DocumentsRead      int64
	DocumentsExtracted int64
	ParseFailures      int64

	// Attachments
	AttachmentsExtracted int64
	AttachmentBytes      int64
	SequenceMismatches   int64
	PendingByName        map[string]int64

	// Storage
	StoreWriteSuccess int64
	StoreWriteFailure int64

	// Publishing
	PublishSuccess int64
	PublishFailure int64

	// Dimensions (informational, set at construction)
	StorageBackend string
	Adapter        string
	RunID          string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	documentsRead      int64
	documentsExtracted int64
	parseFailures      int64

	attachmentsExtracted int64
	attachmentBytes      int64
	sequenceMismatches   int64
	pendingByName        map[string]int64

	storeWriteSuccess int64
	storeWriteFailure int64

	publishSuccess int64
	publishFailure int64

	storageBackend string
	adapter        string
	runID          string
}

// NewCollector creates a Collector with dimension labels.
// adapter may be empty when no publisher is configured.
func NewCollector(storageBackend, adapter, runID string) *Collector {
	return &Collector{
		pendingByName:  make(map[string]int64),
		storageBackend: storageBackend,
		adapter:        adapter,
		runID:          runID,
	}
}

// --- Documents ---

// IncDocumentRead records a document whose first part was read and scanned.
func (c *Collector) IncDocumentRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.documentsRead++
	c.mu.Unlock()
}

// IncDocumentExtracted records a document whose attachments were all stored.
func (c *Collector) IncDocumentExtracted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.documentsExtracted++
	c.mu.Unlock()
}

// IncParseFailure records a malformed document part.
func (c *Collector) IncParseFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.parseFailures++
	c.mu.Unlock()
}

// --- Attachments ---

// AddAttachment records one extracted attachment of n bytes.
func (c *Collector) AddAttachment(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.attachmentsExtracted++
	c.attachmentBytes += n
	c.mu.Unlock()
}

// RecordMismatch records a document that named more attachments than the
// message carried. pending are the names left without a part.
func (c *Collector) RecordMismatch(pending []string) {
	if c == nil || len(pending) == 0 {
		return
	}
	c.mu.Lock()
	c.sequenceMismatches++
	for _, name := range pending {
		c.pendingByName[name]++
	}
	c.mu.Unlock()
}

// --- Storage ---
// Storage counters are per-object: the document body and each attachment
// count once.

// IncStoreWriteSuccess records a successful object write.
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteSuccess++
	c.mu.Unlock()
}

// IncStoreWriteFailure records a failed object write.
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteFailure++
	c.mu.Unlock()
}

// --- Publishing ---

// IncPublishSuccess records a delivered event.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishSuccess++
	c.mu.Unlock()
}

// IncPublishFailure records an event that could not be delivered.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make(map[string]int64, len(c.pendingByName))
	for k, v := range c.pendingByName {
		pending[k] = v
	}

	return Snapshot{
		DocumentsRead:      c.documentsRead,
		DocumentsExtracted: c.documentsExtracted,
		ParseFailures:      c.parseFailures,

		AttachmentsExtracted: c.attachmentsExtracted,
		AttachmentBytes:      c.attachmentBytes,
		SequenceMismatches:   c.sequenceMismatches,
		PendingByName:        pending,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,

		StorageBackend: c.storageBackend,
		Adapter:        c.adapter,
		RunID:          c.runID,
	}
}

// Package reader opens CouchDB responses for the couchpart CLI and shapes
// what read-only commands render.
package reader

// InspectResponse describes a document response without storing anything.
type InspectResponse struct {
	Source    string `json:"source" yaml:"source"`
	DocID     string `json:"doc_id" yaml:"doc_id"`
	Rev       string `json:"rev" yaml:"rev"`
	BodyBytes int    `json:"body_bytes" yaml:"body_bytes"`
	Multipart bool   `json:"multipart" yaml:"multipart"`
	// Attachments lists the parts in message order.
	Attachments []AttachmentPart `json:"attachments" yaml:"attachments"`
	// Pending lists declared names the message carried no part for.
	Pending    []string `json:"pending,omitempty" yaml:"pending,omitempty"`
	TotalBytes int64    `json:"total_bytes" yaml:"total_bytes"`
}

// AttachmentPart describes one attachment body-part.
type AttachmentPart struct {
	Index       int    `json:"index" yaml:"index"`
	Name        string `json:"name" yaml:"name"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
}

// FrameStats aggregates a frame stream summary.
type FrameStats struct {
	Frames      int   `json:"frames" yaml:"frames"`
	Documents   int   `json:"documents" yaml:"documents"`
	Attachments int   `json:"attachments" yaml:"attachments"`
	Chunks      int64 `json:"chunks" yaml:"chunks"`
	Bytes       int64 `json:"bytes" yaml:"bytes"`
	Incomplete  int   `json:"incomplete" yaml:"incomplete"`
}

// Package types defines core domain types shared across couchpart packages.
//
//nolint:revive // types is a common Go package naming convention
package types

// UnknownDocID labels output for documents without a readable _id.
const UnknownDocID = "unknown"

// DocumentMeta identifies one document extraction.
type DocumentMeta struct {
	// RunID is the extraction run identifier.
	RunID string `json:"run_id"`
	// DocID is the document _id, or UnknownDocID.
	DocID string `json:"doc_id"`
	// Rev is the revision taken from the ETag header.
	Rev string `json:"rev"`
	// Source names the input (file path or "-").
	Source *string `json:"source,omitempty"`
}

// AttachmentInfo describes one extracted attachment.
type AttachmentInfo struct {
	Name        string `json:"name" yaml:"name"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
}

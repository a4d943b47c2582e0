// Package store persists extracted documents and attachments.
//
// Objects land at Hive-style paths keyed by document id and revision:
//
//	documents/doc_id=<id>/rev=<rev>/document.json
//	documents/doc_id=<id>/rev=<rev>/attachments/<name>
//
// Path segments are escaped with url.PathEscape, so attachment names that
// contain "/" stay a single path segment. Names made only of dots ("." and
// "..") have each dot escaped as %2E so they never address a parent.
package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// DocumentFile is the object name of the document body under a revision.
const DocumentFile = "document.json"

// Key identifies one document revision.
type Key struct {
	DocID string
	Rev   string
}

// Prefix returns the storage prefix for all objects of the revision.
func (k Key) Prefix() string {
	return fmt.Sprintf("documents/doc_id=%s/rev=%s", url.PathEscape(k.DocID), url.PathEscape(k.Rev))
}

// DocumentPath returns the path of the document body.
func (k Key) DocumentPath() string {
	return k.Prefix() + "/" + DocumentFile
}

// AttachmentPath returns the path of the named attachment.
func (k Key) AttachmentPath(name string) string {
	return k.Prefix() + "/attachments/" + escapeSegment(name)
}

func escapeSegment(s string) string {
	if s != "" && strings.Trim(s, ".") == "" {
		return strings.Repeat("%2E", len(s))
	}
	return url.PathEscape(s)
}

// Sink receives the document body and its attachments.
// Attachment content is streamed; implementations must consume r before
// returning.
type Sink interface {
	// PutDocument stores the document JSON text.
	PutDocument(ctx context.Context, key Key, body []byte) error
	// PutAttachment stores one attachment's content.
	PutAttachment(ctx context.Context, key Key, name string, r io.Reader) error
	// Close releases sink resources.
	Close() error
}

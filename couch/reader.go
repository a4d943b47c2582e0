// Package couch reads CouchDB multipart/related document responses.
//
// A response either carries the document JSON as its whole body, or a
// multipart/related body whose first part is the document and whose
// following parts are the attachments, in the order their names appear in
// the document's _attachments object.
package couch

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/pithecene-io/couchpart/attach"
	"github.com/pithecene-io/couchpart/jsontok"
	"github.com/pithecene-io/couchpart/mimepart"
	"github.com/pithecene-io/couchpart/scan"
)

// Header names and parameters read from the response.
const (
	ETagHeader        = "ETag"
	ContentTypeHeader = "Content-Type"
	BoundaryParam     = "boundary"
)

// ErrNoDocumentPart is returned when a multipart body has no parts.
var ErrNoDocumentPart = errors.New("multipart body has no document part")

// Document is a document read from a response.
type Document struct {
	revision    string
	body        string
	attachments *attach.Cursor
}

// Read reads a document from r, a response body described by headers.
//
// Without a boundary parameter on the Content-Type header, r is read to
// the end as the document. Otherwise the first body-part is read as the
// document and the remaining parts are left on r for the attachment cursor.
// The caller owns r and must keep it open while attachments are read.
func Read(r io.Reader, headers Headers) (*Document, error) {
	etag, err := headers.Get(ETagHeader)
	if err != nil {
		return nil, err
	}
	ct, err := headers.Get(ContentTypeHeader)
	if err != nil {
		return nil, err
	}

	boundary, err := Boundary(ct.Value)
	if err != nil {
		return nil, err
	}

	doc := &Document{revision: ParseRevision(etag.Value)}

	if boundary == "" {
		body, err := readText(r, ct.Value)
		if err != nil {
			return nil, fmt.Errorf("read document body: %w", err)
		}
		doc.body = body
		return doc, nil
	}

	src := mimepart.NewMultipart(r, boundary)
	ok, err := src.Next()
	if err != nil {
		return nil, fmt.Errorf("read document part: %w", err)
	}
	if !ok {
		return nil, ErrNoDocumentPart
	}

	part := src.Part()
	body, err := readText(part.Body, part.Header.Get(ContentTypeHeader))
	if err != nil {
		return nil, fmt.Errorf("read document part: %w", err)
	}
	doc.body = body

	names, _, err := scan.AttachmentNames(jsontok.NewLexerString(body))
	if err != nil {
		return nil, fmt.Errorf("scan attachment order: %w", err)
	}
	doc.attachments = attach.New(names, src)

	return doc, nil
}

// Revision returns the document revision taken from the ETag header.
func (d *Document) Revision() string {
	return d.revision
}

// Body returns the document JSON text.
func (d *Document) Body() string {
	return d.body
}

// HasAttachments reports whether the response was multipart, i.e. whether
// Attachments returns a cursor.
func (d *Document) HasAttachments() bool {
	return d.attachments != nil
}

// Attachments returns the attachment cursor, or nil for a single-body
// response.
func (d *Document) Attachments() *attach.Cursor {
	return d.attachments
}

// ID returns the document's _id, or "" when the body has none or is not a
// JSON object.
func (d *Document) ID() string {
	id, found, err := scan.FieldString(jsontok.NewLexerString(d.body), scan.IDKey)
	if err != nil || !found {
		return ""
	}
	return id
}

// ParseRevision strips one pair of surrounding double quotes from an ETag
// value. Anything else is returned verbatim.
func ParseRevision(etag string) string {
	if len(etag) >= 2 && strings.HasPrefix(etag, `"`) && strings.HasSuffix(etag, `"`) {
		return etag[1 : len(etag)-1]
	}
	return etag
}

// Boundary returns the boundary parameter of a Content-Type value, or ""
// when it has none. A malformed parameter elsewhere in the value does not
// hide a well-formed boundary.
func Boundary(contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	switch {
	case err == nil:
		return params[BoundaryParam], nil
	case errors.Is(err, mime.ErrInvalidMediaParameter):
		return lenientParam(contentType, BoundaryParam), nil
	default:
		return "", fmt.Errorf("invalid %s %q: %w", ContentTypeHeader, contentType, err)
	}
}

// lenientParam parses the parameters of a media type one at a time and
// returns the value of name, skipping parameters that fail to parse.
func lenientParam(contentType, name string) string {
	segments := splitParams(contentType)
	for _, seg := range segments[1:] {
		_, params, err := mime.ParseMediaType("x/x;" + seg)
		if err != nil {
			continue
		}
		if v, ok := params[name]; ok {
			return v
		}
	}
	return ""
}

// splitParams splits a header value on semicolons outside quoted strings.
func splitParams(v string) []string {
	var (
		out     []string
		start   int
		quoted  bool
		escaped bool
	)
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == ';' && !quoted:
			out = append(out, v[start:i])
			start = i + 1
		}
	}
	return append(out, v[start:])
}

// readText reads r to the end, decoding it from the charset named in
// contentType. Unknown charsets fall back to the raw bytes.
func readText(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	charset := strings.ToLower(lenientParam(contentType, "charset"))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(data), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return string(data), nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), nil
	}
	return string(decoded), nil
}

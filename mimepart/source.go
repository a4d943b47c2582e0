// Package mimepart provides a forward-only cursor over MIME multipart
// body-parts.
package mimepart

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// Part is the body-part a Source is positioned on. Its Body is valid only
// until the Source advances.
type Part struct {
	Header textproto.MIMEHeader
	Body   io.Reader
}

// Source is a forward-only cursor over body-parts.
//
// Next advances to the following part and reports whether one exists.
// Unread content of the previous part is discarded. Part returns the
// current part, or nil before the first advance and after exhaustion.
type Source interface {
	Next() (bool, error)
	Part() *Part
}

// Multipart is a Source over a multipart stream. Part content is returned
// raw: Content-Transfer-Encoding is not decoded.
type Multipart struct {
	mr    *multipart.Reader
	part  *Part
	count int
	done  bool
}

var _ Source = (*Multipart)(nil)

// NewMultipart returns a Source reading parts delimited by boundary from r.
func NewMultipart(r io.Reader, boundary string) *Multipart {
	return &Multipart{mr: multipart.NewReader(r, boundary)}
}

// Next implements Source. A clean final boundary ends the sequence; any
// other read failure is returned wrapped.
func (m *Multipart) Next() (bool, error) {
	if m.done {
		return false, nil
	}

	p, err := m.mr.NextRawPart()
	if err == io.EOF {
		m.done = true
		m.part = nil
		return false, nil
	}
	if err != nil {
		m.done = true
		m.part = nil
		return false, fmt.Errorf("mimepart: read part %d: %w", m.count+1, err)
	}

	m.count++
	m.part = &Part{Header: p.Header, Body: p}
	return true, nil
}

// Part implements Source.
func (m *Multipart) Part() *Part {
	return m.part
}

// Count returns the number of parts advanced over so far.
func (m *Multipart) Count() int {
	return m.count
}

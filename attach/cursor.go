// Package attach pairs ordered attachment names with streamed body-parts.
package attach

import (
	"io"
	"net/textproto"
	"strings"

	"github.com/pithecene-io/couchpart/mimepart"
)

// Cursor walks attachments of a multipart document. The Nth successful Next
// pairs the Nth name with the Nth remaining body-part. Iteration stops as
// soon as either sequence runs out; nothing is fabricated to fill the gap.
//
// A Cursor exclusively owns its Source.
type Cursor struct {
	names []string
	next  int
	src   mimepart.Source

	name string
	part *mimepart.Part
}

// New returns a cursor over src labelled by names. names is copied.
func New(names []string, src mimepart.Source) *Cursor {
	return &Cursor{
		names: append([]string(nil), names...),
		src:   src,
	}
}

// Next advances to the next attachment. It returns false once names or
// parts are exhausted, checking names first so that surplus parts are never
// pulled. Errors from the source are returned unchanged.
func (c *Cursor) Next() (bool, error) {
	if c.next >= len(c.names) {
		c.clear()
		return false, nil
	}

	ok, err := c.src.Next()
	if err != nil {
		c.clear()
		return false, err
	}
	if !ok {
		c.clear()
		return false, nil
	}

	c.name = c.names[c.next]
	c.part = c.src.Part()
	c.next++
	return true, nil
}

// Name returns the current attachment name, or "" when not positioned on
// an attachment.
func (c *Cursor) Name() string {
	return c.name
}

// Content returns a new reader over the current attachment's content.
// All readers returned for one position share the same forward-only part.
func (c *Cursor) Content() io.Reader {
	if c.part == nil || c.part.Body == nil {
		return strings.NewReader("")
	}
	return &partReader{r: c.part.Body}
}

// Header returns the MIME header of the current part, or nil.
func (c *Cursor) Header() textproto.MIMEHeader {
	if c.part == nil {
		return nil
	}
	return c.part.Header
}

// Index returns the 1-based position of the current attachment, or 0.
func (c *Cursor) Index() int {
	if c.part == nil {
		return 0
	}
	return c.next
}

// Names returns all attachment names in document order.
func (c *Cursor) Names() []string {
	return append([]string(nil), c.names...)
}

// Pending returns the names not yet paired with a part. After Next has
// returned false, a non-empty result means the message carried fewer parts
// than the document names.
func (c *Cursor) Pending() []string {
	return append([]string(nil), c.names[c.next:]...)
}

func (c *Cursor) clear() {
	c.name = ""
	c.part = nil
}

type partReader struct {
	r io.Reader
}

func (p *partReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

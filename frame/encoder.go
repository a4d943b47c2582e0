package frame

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pithecene-io/couchpart/store"
	"github.com/pithecene-io/couchpart/types"
)

// Encoder writes a chunk frame stream. It implements store.Sink so the
// extractor can stream a document to a pipe instead of a store.
type Encoder struct {
	mu        sync.Mutex
	w         io.Writer
	chunkSize int
}

// NewEncoder creates an encoder writing to w. chunkSize is clamped to
// (0, MaxChunkSize]; zero or negative selects MaxChunkSize.
func NewEncoder(w io.Writer, chunkSize int) *Encoder {
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &Encoder{w: w, chunkSize: chunkSize}
}

// PutDocument writes a document frame.
func (e *Encoder) PutDocument(_ context.Context, key store.Key, body []byte) error {
	return e.write(&DocumentFrame{
		Type:    DocumentType,
		Version: types.FrameVersion,
		DocID:   key.DocID,
		Rev:     key.Rev,
		Body:    string(body),
	})
}

// PutAttachment writes r as a run of chunk frames. An empty attachment is
// one empty chunk with IsLast set. The context is checked between chunks.
func (e *Encoder) PutAttachment(ctx context.Context, key store.Key, name string, r io.Reader) error {
	cur := make([]byte, e.chunkSize)
	next := make([]byte, e.chunkSize)

	n, err := readChunk(r, cur)
	if err != nil {
		return err
	}
	for seq := int64(1); ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Look one chunk ahead so the last frame can carry IsLast.
		var m int
		if n == len(cur) {
			if m, err = readChunk(r, next); err != nil {
				return err
			}
		}
		last := m == 0

		if err := e.write(&AttachmentChunkFrame{
			Type:   AttachmentChunkType,
			DocID:  key.DocID,
			Name:   name,
			Seq:    seq,
			IsLast: last,
			Data:   cur[:n],
		}); err != nil {
			return err
		}
		if last {
			return nil
		}
		cur, next = next, cur
		n = m
	}
}

// Close implements store.Sink. The underlying writer is not closed.
func (e *Encoder) Close() error {
	return nil
}

func (e *Encoder) write(v any) error {
	buf, err := encodeFrame(v)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readChunk fills buf as far as r allows and returns the byte count.
// A short count means r is exhausted.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

// Verify Encoder implements store.Sink.
var _ store.Sink = (*Encoder)(nil)

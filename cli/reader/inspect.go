package reader

import (
	"fmt"
	"io"

	"github.com/pithecene-io/couchpart/couch"
	"github.com/pithecene-io/couchpart/frame"
	"github.com/pithecene-io/couchpart/iox"
)

// Inspect drains doc's attachments, counting bytes per part.
func Inspect(source string, doc *couch.Document) (*InspectResponse, error) {
	resp := &InspectResponse{
		Source:      source,
		DocID:       doc.ID(),
		Rev:         doc.Revision(),
		BodyBytes:   len(doc.Body()),
		Multipart:   doc.HasAttachments(),
		Attachments: []AttachmentPart{},
	}

	cur := doc.Attachments()
	if cur == nil {
		return resp, nil
	}
	for {
		ok, err := cur.Next()
		if err != nil {
			return resp, fmt.Errorf("read attachment %d: %w", len(resp.Attachments)+1, err)
		}
		if !ok {
			break
		}
		counter := iox.NewCountingReader(cur.Content())
		if _, err := io.Copy(io.Discard, counter); err != nil {
			return resp, fmt.Errorf("read attachment %q: %w", cur.Name(), err)
		}
		resp.Attachments = append(resp.Attachments, AttachmentPart{
			Index:       cur.Index(),
			Name:        cur.Name(),
			ContentType: cur.Header().Get(couch.ContentTypeHeader),
			Bytes:       counter.N(),
		})
		resp.TotalBytes += counter.N()
	}
	resp.Pending = cur.Pending()
	return resp, nil
}

// StatsFromSummary aggregates a frame stream summary.
func StatsFromSummary(sum *frame.Summary) *FrameStats {
	stats := &FrameStats{Frames: sum.Frames, Documents: len(sum.Documents)}
	for _, doc := range sum.Documents {
		for _, att := range doc.Attachments {
			stats.Attachments++
			stats.Chunks += att.Chunks
			stats.Bytes += att.Bytes
			if !att.Complete {
				stats.Incomplete++
			}
		}
	}
	return stats
}

package frame

import (
	"fmt"
	"io"
)

// Summary describes a decoded frame stream.
type Summary struct {
	Frames    int               `json:"frames" yaml:"frames"`
	Documents []DocumentSummary `json:"documents" yaml:"documents"`
}

// DocumentSummary describes one document in a frame stream.
type DocumentSummary struct {
	DocID       string              `json:"doc_id" yaml:"doc_id"`
	Rev         string              `json:"rev" yaml:"rev"`
	Version     string              `json:"version" yaml:"version"`
	BodyBytes   int                 `json:"body_bytes" yaml:"body_bytes"`
	Attachments []AttachmentSummary `json:"attachments" yaml:"attachments"`
}

// AttachmentSummary describes one attachment's chunks.
type AttachmentSummary struct {
	Name     string `json:"name" yaml:"name"`
	Chunks   int64  `json:"chunks" yaml:"chunks"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Complete bool   `json:"complete" yaml:"complete"`
}

// Summarize reads frames from r until EOF and checks their order: every
// chunk follows a document frame, chunk sequence numbers are contiguous
// from 1, and no chunk follows the last chunk of its attachment.
// An attachment whose last chunk never arrived is reported incomplete.
func Summarize(r io.Reader) (*Summary, error) {
	dec := NewDecoder(r)
	sum := &Summary{Documents: []DocumentSummary{}}

	var doc *DocumentSummary
	var att *AttachmentSummary
	for {
		v, err := dec.Next()
		if err == io.EOF {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", sum.Frames+1, err)
		}
		sum.Frames++

		switch f := v.(type) {
		case *DocumentFrame:
			sum.Documents = append(sum.Documents, DocumentSummary{
				DocID:       f.DocID,
				Rev:         f.Rev,
				Version:     f.Version,
				BodyBytes:   len(f.Body),
				Attachments: []AttachmentSummary{},
			})
			doc = &sum.Documents[len(sum.Documents)-1]
			att = nil

		case *AttachmentChunkFrame:
			if doc == nil {
				return sum, sequenceError(sum.Frames, "attachment chunk %q before any document frame", f.Name)
			}
			if att == nil || att.Name != f.Name || att.Complete {
				if f.Seq != 1 {
					return sum, sequenceError(sum.Frames, "attachment %q starts at seq %d, want 1", f.Name, f.Seq)
				}
				doc.Attachments = append(doc.Attachments, AttachmentSummary{Name: f.Name})
				att = &doc.Attachments[len(doc.Attachments)-1]
			} else if f.Seq != att.Chunks+1 {
				return sum, sequenceError(sum.Frames, "attachment %q seq %d, want %d", f.Name, f.Seq, att.Chunks+1)
			}
			att.Chunks++
			att.Bytes += int64(len(f.Data))
			att.Complete = f.IsLast
		}
	}
}

func sequenceError(frame int, format string, args ...any) error {
	return &FrameError{
		Kind: FrameErrorSequence,
		Msg:  fmt.Sprintf("frame %d: ", frame) + fmt.Sprintf(format, args...),
	}
}

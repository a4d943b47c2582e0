package store

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// StubSink records writes in memory for testing.
type StubSink struct {
	mu          sync.Mutex
	Documents   []StubObject
	Attachments []StubObject
	// FailOn makes PutAttachment fail for the named attachment.
	FailOn string
	Closed bool
}

// StubObject is a recorded write.
type StubObject struct {
	Key  Key
	Name string
	Data []byte
}

// NewStubSink creates an empty stub sink.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// PutDocument implements Sink by recording the call.
func (s *StubSink) PutDocument(_ context.Context, key Key, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Documents = append(s.Documents, StubObject{Key: key, Name: DocumentFile, Data: append([]byte(nil), body...)})
	return nil
}

// PutAttachment implements Sink by reading r fully and recording it.
func (s *StubSink) PutAttachment(_ context.Context, key Key, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOn != "" && s.FailOn == name {
		return NewStorageError(ErrDiskFull, "write", key.AttachmentPath(name), fmt.Errorf("stub failure for %s", name))
	}
	s.Attachments = append(s.Attachments, StubObject{Key: key, Name: name, Data: data})
	return nil
}

// Close implements Sink.
func (s *StubSink) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.mu.Unlock()
	return nil
}

// AttachmentNames returns the recorded attachment names in write order.
func (s *StubSink) AttachmentNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.Attachments))
	for i, a := range s.Attachments {
		names[i] = a.Name
	}
	return names
}

// Verify StubSink implements Sink.
var _ Sink = (*StubSink)(nil)

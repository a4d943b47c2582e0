package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/justapithecus/lode/lode"
)

// LodeSink writes objects to a Lode Store.
// The store is created lazily from the factory on first write.
type LodeSink struct {
	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error
}

// NewFSSink creates a sink backed by the local filesystem under root.
func NewFSSink(root string) *LodeSink {
	return NewSinkWithFactory(lode.NewFSFactory(root))
}

// NewSinkWithFactory creates a sink with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewSinkWithFactory(factory lode.StoreFactory) *LodeSink {
	return &LodeSink{storeFactory: factory}
}

// PutDocument implements Sink.
func (s *LodeSink) PutDocument(ctx context.Context, key Key, body []byte) error {
	return s.put(ctx, key.DocumentPath(), bytes.NewReader(body))
}

// PutAttachment implements Sink.
func (s *LodeSink) PutAttachment(ctx context.Context, key Key, name string, r io.Reader) error {
	return s.put(ctx, key.AttachmentPath(name), r)
}

func (s *LodeSink) put(ctx context.Context, path string, r io.Reader) error {
	store, err := s.getOrCreateStore()
	if err != nil {
		return WrapInitError(err, path)
	}
	return WrapWriteError(store.Put(ctx, path, r), path)
}

// Close releases sink resources.
func (s *LodeSink) Close() error {
	// Lode stores hold no open handles between calls.
	return nil
}

func (s *LodeSink) getOrCreateStore() (lode.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = s.storeFactory()
		if s.storeErr != nil {
			s.storeErr = fmt.Errorf("store init failed: %w", s.storeErr)
		}
	})
	return s.store, s.storeErr
}

// Verify LodeSink implements Sink.
var _ Sink = (*LodeSink)(nil)

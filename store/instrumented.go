package store

import (
	"context"
	"io"

	"github.com/pithecene-io/couchpart/metrics"
)

// InstrumentedSink wraps a Sink and records one store_write_success or
// store_write_failure per object.
type InstrumentedSink struct {
	inner     Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// PutDocument delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) PutDocument(ctx context.Context, key Key, body []byte) error {
	return s.record(s.inner.PutDocument(ctx, key, body))
}

// PutAttachment delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) PutAttachment(ctx context.Context, key Key, name string, r io.Reader) error {
	return s.record(s.inner.PutAttachment(ctx, key, name, r))
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

func (s *InstrumentedSink) record(err error) error {
	if err != nil {
		s.collector.IncStoreWriteFailure()
	} else {
		s.collector.IncStoreWriteSuccess()
	}
	return err
}

// Verify InstrumentedSink implements Sink.
var _ Sink = (*InstrumentedSink)(nil)

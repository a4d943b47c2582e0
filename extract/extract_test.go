package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/couchpart/adapter"
	"github.com/pithecene-io/couchpart/couch"
	"github.com/pithecene-io/couchpart/frame"
	"github.com/pithecene-io/couchpart/log"
	"github.com/pithecene-io/couchpart/metrics"
	"github.com/pithecene-io/couchpart/store"
	"github.com/pithecene-io/couchpart/types"
)

const (
	testBoundary = "frontier"
	testDoc      = `{"_id":"doc1","x":1,"_attachments":{"foo.png":{"content_type":"image/png"},"bar.txt":{"content_type":"text/plain"}}}`
)

type part struct {
	contentType string
	body        string
}

func buildMessage(t *testing.T, parts ...part) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(testBoundary); err != nil {
		t.Fatalf("SetBoundary failed: %v", err)
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			t.Fatalf("write part failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return buf.Bytes()
}

func readDoc(t *testing.T, msg []byte) *couch.Document {
	t.Helper()
	doc, err := couch.Read(bytes.NewReader(msg), couch.Headers{
		{Name: "ETag", Value: `"2-b"`},
		{Name: "Content-Type", Value: "multipart/related; boundary=" + testBoundary},
	})
	if err != nil {
		t.Fatalf("couch.Read failed: %v", err)
	}
	return doc
}

func quietLogger() *log.Logger {
	return log.NewLogger(&types.DocumentMeta{}).WithOutput(io.Discard)
}

func standardMessage(t *testing.T) []byte {
	return buildMessage(t,
		part{"application/json", testDoc},
		part{"image/png", "PNGDATA"},
		part{"text/plain", "hello"},
	)
}

type recordingAdapter struct {
	mu     sync.Mutex
	events []*adapter.DocumentExtractedEvent
	err    error
}

func (a *recordingAdapter) Publish(_ context.Context, e *adapter.DocumentExtractedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAdapter) Close() error { return nil }

func TestRun_StoresInDocumentOrder(t *testing.T) {
	sink := store.NewStubSink()
	pub := &recordingAdapter{}
	collector := metrics.NewCollector("memory", "test", "run-1")

	report, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{
		Sink:        sink,
		Adapter:     pub,
		Collector:   collector,
		Logger:      quietLogger(),
		RunID:       "run-1",
		StoragePath: "mem://",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if want := []string{"foo.png", "bar.txt"}; !slices.Equal(sink.AttachmentNames(), want) {
		t.Errorf("stored names = %q, want %q", sink.AttachmentNames(), want)
	}
	if string(sink.Attachments[0].Data) != "PNGDATA" || string(sink.Attachments[1].Data) != "hello" {
		t.Errorf("stored data = %q, %q", sink.Attachments[0].Data, sink.Attachments[1].Data)
	}
	if len(sink.Documents) != 1 || string(sink.Documents[0].Data) != testDoc {
		t.Errorf("documents = %+v", sink.Documents)
	}

	if report.Meta.DocID != "doc1" || report.Meta.Rev != "2-b" || report.Meta.RunID != "run-1" {
		t.Errorf("meta = %+v", report.Meta)
	}
	if report.Bytes != 12 {
		t.Errorf("Bytes = %d, want 12", report.Bytes)
	}
	if report.Attachments[0].ContentType != "image/png" || report.Attachments[1].Bytes != 5 {
		t.Errorf("attachments = %+v", report.Attachments)
	}
	if !report.Published || len(pub.events) != 1 {
		t.Fatalf("published = %v, events = %d", report.Published, len(pub.events))
	}
	ev := pub.events[0]
	if ev.DocID != "doc1" || ev.StoragePath != "mem://" || !slices.Equal(ev.Attachments, []string{"foo.png", "bar.txt"}) {
		t.Errorf("event = %+v", ev)
	}

	s := collector.Snapshot()
	if s.DocumentsRead != 1 || s.DocumentsExtracted != 1 || s.AttachmentsExtracted != 2 || s.AttachmentBytes != 12 || s.PublishSuccess != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestRun_FewerPartsThanNames(t *testing.T) {
	msg := buildMessage(t,
		part{"application/json", testDoc},
		part{"image/png", "PNGDATA"},
	)
	collector := metrics.NewCollector("memory", "", "run-1")
	pub := &recordingAdapter{}

	report, err := Run(t.Context(), readDoc(t, msg), Options{
		Sink:      store.NewStubSink(),
		Adapter:   pub,
		Collector: collector,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !slices.Equal(report.Names(), []string{"foo.png"}) {
		t.Errorf("names = %q", report.Names())
	}
	if !slices.Equal(report.Pending, []string{"bar.txt"}) {
		t.Errorf("Pending = %q", report.Pending)
	}
	if !slices.Equal(pub.events[0].Pending, []string{"bar.txt"}) {
		t.Errorf("event pending = %q", pub.events[0].Pending)
	}
	if collector.Snapshot().SequenceMismatches != 1 {
		t.Error("mismatch not recorded")
	}
	if report.Meta.RunID == "" {
		t.Error("RunID should be generated")
	}
}

func TestRun_MorePartsThanNames(t *testing.T) {
	msg := buildMessage(t,
		part{"application/json", `{"_attachments":{"only.txt":{}}}`},
		part{"text/plain", "one"},
		part{"text/plain", "surplus"},
	)
	sink := store.NewStubSink()

	report, err := Run(t.Context(), readDoc(t, msg), Options{Sink: sink, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !slices.Equal(sink.AttachmentNames(), []string{"only.txt"}) {
		t.Errorf("stored = %q", sink.AttachmentNames())
	}
	if report.Meta.DocID != types.UnknownDocID {
		t.Errorf("DocID = %q, want %q", report.Meta.DocID, types.UnknownDocID)
	}
	if report.Pending != nil {
		t.Errorf("Pending = %q, want none", report.Pending)
	}
}

func TestRun_NoAttachmentsResponse(t *testing.T) {
	doc, err := couch.Read(strings.NewReader(`{"_id":"plain"}`), couch.Headers{
		{Name: "ETag", Value: `"1-a"`},
		{Name: "Content-Type", Value: "application/json"},
	})
	if err != nil {
		t.Fatalf("couch.Read failed: %v", err)
	}
	sink := store.NewStubSink()

	report, err := Run(t.Context(), doc, Options{Sink: sink, Logger: quietLogger(), SkipDocument: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Attachments) != 0 || len(sink.Documents) != 0 || report.DocumentPath != "" {
		t.Errorf("report = %+v, documents = %d", report, len(sink.Documents))
	}
}

func TestRun_SinkFailure(t *testing.T) {
	sink := store.NewStubSink()
	sink.FailOn = "bar.txt"
	pub := &recordingAdapter{}

	report, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{
		Sink:    sink,
		Adapter: pub,
		Logger:  quietLogger(),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageAttachment || se.Name != "bar.txt" {
		t.Fatalf("error = %v, want attachment stage error for bar.txt", err)
	}
	if !errors.Is(err, store.ErrDiskFull) {
		t.Errorf("error should wrap the storage error: %v", err)
	}
	if !slices.Equal(report.Names(), []string{"foo.png"}) {
		t.Errorf("report names = %q", report.Names())
	}
	if len(pub.events) != 0 {
		t.Error("nothing should be published after a failure")
	}
}

func TestRun_PublishFailure(t *testing.T) {
	boom := errors.New("broker down")
	collector := metrics.NewCollector("memory", "test", "run-1")

	report, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{
		Sink:      store.NewStubSink(),
		Adapter:   &recordingAdapter{err: boom},
		Collector: collector,
		Logger:    quietLogger(),
	})
	if FailedStage(err) != StagePublish || !errors.Is(err, boom) {
		t.Fatalf("error = %v, want publish stage wrapping %v", err, boom)
	}
	if len(report.Attachments) != 2 || report.Published {
		t.Errorf("report = %+v", report)
	}
	if collector.Snapshot().PublishFailure != 1 {
		t.Error("publish failure not recorded")
	}
}

func TestRun_TruncatedMessage(t *testing.T) {
	msg := standardMessage(t)
	cut := msg[:bytes.Index(msg, []byte("hel"))+2]

	report, err := Run(t.Context(), readDoc(t, cut), Options{Sink: store.NewStubSink(), Logger: quietLogger()})
	if err == nil {
		t.Fatal("expected error for truncated message")
	}
	if stage := FailedStage(err); stage != StageAttachment && stage != StageRead {
		t.Errorf("stage = %q", stage)
	}
	if !slices.Equal(report.Names(), []string{"foo.png"}) {
		t.Errorf("report names = %q", report.Names())
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	sink := store.NewStubSink()
	_, err := Run(ctx, readDoc(t, standardMessage(t)), Options{Sink: sink, Logger: quietLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(sink.Attachments) != 0 {
		t.Errorf("stored %d attachments after cancellation", len(sink.Attachments))
	}
}

func TestRun_RequiresSink(t *testing.T) {
	if _, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{}); err == nil {
		t.Fatal("expected error without sink")
	}
}

func TestRun_LodeMemorySink(t *testing.T) {
	mem := lode.NewMemory()
	sink := store.NewSinkWithFactory(func() (lode.Store, error) { return mem, nil })

	if _, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{Sink: sink, Logger: quietLogger()}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	key := store.Key{DocID: "doc1", Rev: "2-b"}
	rc, err := mem.Get(t.Context(), key.AttachmentPath("bar.txt"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("bar.txt = %q", data)
	}
}

func TestRun_FrameSink(t *testing.T) {
	var buf bytes.Buffer
	enc := frame.NewEncoder(&buf, 4)

	if _, err := Run(t.Context(), readDoc(t, standardMessage(t)), Options{Sink: enc, Logger: quietLogger()}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sum, err := frame.Summarize(&buf)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(sum.Documents) != 1 || sum.Documents[0].DocID != "doc1" {
		t.Fatalf("summary = %+v", sum)
	}
	atts := sum.Documents[0].Attachments
	if len(atts) != 2 || atts[0].Name != "foo.png" || atts[0].Chunks != 2 || atts[1].Bytes != 5 {
		t.Errorf("attachments = %+v", atts)
	}
}

func TestWriteReport(t *testing.T) {
	report := &Report{
		Meta:        types.DocumentMeta{RunID: "r", DocID: "d", Rev: "1-a"},
		Attachments: []types.AttachmentInfo{{Name: "a", Bytes: 3}},
		Bytes:       3,
	}

	var buf bytes.Buffer
	if err := writeReportTo(report, &buf); err != nil {
		t.Fatalf("writeReportTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"doc_id": "d"`) || !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("report = %s", buf.String())
	}

	if err := WriteReport(report, ""); err == nil {
		t.Error("empty path should fail")
	}
	path := t.TempDir() + "/report.json"
	if err := WriteReport(report, path); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
}

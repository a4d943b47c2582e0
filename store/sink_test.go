package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/couchpart/metrics"
)

// failingStore is a lode.Store whose writes fail.
type failingStore struct {
	putErr   error
	putPaths []string
}

func (s *failingStore) Put(_ context.Context, path string, _ io.Reader) error {
	s.putPaths = append(s.putPaths, path)
	return s.putErr
}

func (s *failingStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *failingStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *failingStore) List(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (s *failingStore) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *failingStore) ReadRange(_ context.Context, _ string, _, _ int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *failingStore) ReaderAt(_ context.Context, _ string) (io.ReaderAt, error) {
	return nil, errors.New("not implemented")
}

var _ lode.Store = (*failingStore)(nil)

func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func readObject(t *testing.T, store lode.Store, path string) string {
	t.Helper()
	rc, err := store.Get(t.Context(), path)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s failed: %v", path, err)
	}
	return string(data)
}

func TestKey_Paths(t *testing.T) {
	key := Key{DocID: "users/alice", Rev: "3-abc"}

	if got, want := key.Prefix(), "documents/doc_id=users%2Falice/rev=3-abc"; got != want {
		t.Errorf("Prefix() = %q, want %q", got, want)
	}
	if got, want := key.DocumentPath(), "documents/doc_id=users%2Falice/rev=3-abc/document.json"; got != want {
		t.Errorf("DocumentPath() = %q, want %q", got, want)
	}
	if got, want := key.AttachmentPath("img/a b.png"), "documents/doc_id=users%2Falice/rev=3-abc/attachments/img%2Fa%20b.png"; got != want {
		t.Errorf("AttachmentPath() = %q, want %q", got, want)
	}
}

func TestKey_AttachmentPathDotNames(t *testing.T) {
	key := Key{DocID: "d", Rev: "1"}
	tests := map[string]string{
		".":      "%2E",
		"..":     "%2E%2E",
		"...":    "%2E%2E%2E",
		".hide":  ".hide",
		"a..b":   "a..b",
		"../etc": "..%2Fetc",
	}
	for name, seg := range tests {
		want := "documents/doc_id=d/rev=1/attachments/" + seg
		if got := key.AttachmentPath(name); got != want {
			t.Errorf("AttachmentPath(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLodeSink_FSDotNamesStayInAttachments(t *testing.T) {
	dir := t.TempDir()
	sink := NewFSSink(dir)
	key := Key{DocID: "d", Rev: "1"}

	for _, name := range []string{"..", "."} {
		if err := sink.PutAttachment(t.Context(), key, name, strings.NewReader("dots:"+name)); err != nil {
			t.Fatalf("PutAttachment(%q) failed: %v", name, err)
		}
	}
	if err := sink.PutDocument(t.Context(), key, []byte(`{"_id":"d"}`)); err != nil {
		t.Fatalf("PutDocument after dot names failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "documents", "doc_id=d", "rev=1"))
	if err != nil {
		t.Fatalf("stat revision dir failed: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("revision path was overwritten by an attachment")
	}

	fs, err := lode.NewFSFactory(dir)()
	if err != nil {
		t.Fatalf("open fs store failed: %v", err)
	}
	for _, name := range []string{"..", "."} {
		if got := readObject(t, fs, key.AttachmentPath(name)); got != "dots:"+name {
			t.Errorf("attachment %q = %q", name, got)
		}
	}
}

func TestLodeSink_MemoryRoundTrip(t *testing.T) {
	mem := lode.NewMemory()
	sink := NewSinkWithFactory(sharedFactory(mem))
	key := Key{DocID: "doc1", Rev: "1-a"}

	if err := sink.PutDocument(t.Context(), key, []byte(`{"_id":"doc1"}`)); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	if err := sink.PutAttachment(t.Context(), key, "foo.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("PutAttachment failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := readObject(t, mem, key.DocumentPath()); got != `{"_id":"doc1"}` {
		t.Errorf("document = %q", got)
	}
	if got := readObject(t, mem, key.AttachmentPath("foo.png")); got != "png-bytes" {
		t.Errorf("attachment = %q", got)
	}
}

func TestLodeSink_FS(t *testing.T) {
	dir := t.TempDir()
	sink := NewFSSink(dir)
	key := Key{DocID: "doc1", Rev: "1-a"}

	if err := sink.PutAttachment(t.Context(), key, "bar.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("PutAttachment failed: %v", err)
	}

	fs, err := lode.NewFSFactory(dir)()
	if err != nil {
		t.Fatalf("open fs store failed: %v", err)
	}
	if got := readObject(t, fs, key.AttachmentPath("bar.txt")); got != "hello" {
		t.Errorf("attachment = %q", got)
	}
}

func TestLodeSink_WriteFailureClassified(t *testing.T) {
	fs := &failingStore{putErr: errors.New("write /data: no space left on device")}
	sink := NewSinkWithFactory(sharedFactory(fs))
	key := Key{DocID: "d", Rev: "1-a"}

	err := sink.PutAttachment(t.Context(), key, "a.bin", strings.NewReader("x"))
	if !errors.Is(err, ErrDiskFull) {
		t.Fatalf("error = %v, want ErrDiskFull", err)
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T, want *StorageError", err)
	}
	if se.Op != "write" || se.Path != key.AttachmentPath("a.bin") {
		t.Errorf("StorageError = %+v", se)
	}
	if len(fs.putPaths) != 1 {
		t.Errorf("put calls = %d, want 1", len(fs.putPaths))
	}
}

func TestLodeSink_FactoryFailure(t *testing.T) {
	calls := 0
	factory := func() (lode.Store, error) {
		calls++
		return nil, errors.New("dial tcp: connection refused")
	}
	sink := NewSinkWithFactory(factory)
	key := Key{DocID: "d", Rev: "1-a"}

	for range 2 {
		err := sink.PutDocument(t.Context(), key, []byte("{}"))
		var se *StorageError
		if !errors.As(err, &se) || se.Op != "init" {
			t.Fatalf("error = %v, want init StorageError", err)
		}
		if !errors.Is(err, ErrNetwork) {
			t.Errorf("kind = %v, want ErrNetwork", se.Kind)
		}
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestInstrumentedSink(t *testing.T) {
	collector := metrics.NewCollector("memory", "", "run-1")
	inner := NewStubSink()
	inner.FailOn = "bad.bin"
	sink := NewInstrumentedSink(inner, collector)
	key := Key{DocID: "d", Rev: "1-a"}

	if err := sink.PutDocument(t.Context(), key, []byte("{}")); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	if err := sink.PutAttachment(t.Context(), key, "good.bin", strings.NewReader("ok")); err != nil {
		t.Fatalf("PutAttachment failed: %v", err)
	}
	if err := sink.PutAttachment(t.Context(), key, "bad.bin", strings.NewReader("x")); err == nil {
		t.Fatal("expected failure for bad.bin")
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s := collector.Snapshot()
	if s.StoreWriteSuccess != 2 || s.StoreWriteFailure != 1 {
		t.Errorf("success/failure = %d/%d, want 2/1", s.StoreWriteSuccess, s.StoreWriteFailure)
	}
	if !inner.Closed {
		t.Error("inner sink was not closed")
	}
}

func TestStubSink_Records(t *testing.T) {
	s := NewStubSink()
	key := Key{DocID: "d", Rev: "1-a"}
	_ = s.PutAttachment(t.Context(), key, "a", strings.NewReader("1"))
	_ = s.PutAttachment(t.Context(), key, "b", strings.NewReader("22"))

	names := s.AttachmentNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("AttachmentNames() = %q", names)
	}
	if string(s.Attachments[1].Data) != "22" {
		t.Errorf("data = %q", s.Attachments[1].Data)
	}
}

package iox

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestDiscardErr(t *testing.T) {
	called := false
	DiscardErr(func() error {
		called = true
		return errors.New("ignored")
	})
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestCountingReader(t *testing.T) {
	cr := NewCountingReader(strings.NewReader("hello, world"))
	buf := make([]byte, 5)
	if _, err := io.ReadFull(cr, buf); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if cr.N() != 5 {
		t.Errorf("N() = %d, want 5", cr.N())
	}
	if _, err := io.Copy(io.Discard, cr); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if cr.N() != 12 {
		t.Errorf("N() = %d, want 12", cr.N())
	}
}

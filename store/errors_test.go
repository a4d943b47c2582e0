package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		wantKind error
	}{
		{"AccessDenied response", "AccessDenied: you do not have access", ErrAccessDenied},
		{"HTTP 403", "received status 403", ErrAccessDenied},
		{"permission denied", "open /data/out: permission denied", ErrPermissionDenied},
		{"EACCES errno", "open /tmp/file: EACCES", ErrPermissionDenied},
		{"exists", "put documents/x: file exists", ErrExists},
		{"no such file", "open /data: no such file or directory", ErrNotFound},
		{"NoSuchBucket", "NoSuchBucket: the bucket does not exist", ErrNotFound},
		{"no space", "write /data: no space left on device", ErrDiskFull},
		{"quota", "quota exceeded for user", ErrDiskFull},
		{"deadline", "context deadline exceeded", ErrTimeout},
		{"SlowDown", "SlowDown: please reduce your request rate", ErrThrottled},
		{"HTTP 429", "status 429", ErrThrottled},
		{"credentials", "NoCredentialProviders: no valid providers", ErrAuth},
		{"expired", "ExpiredToken: token expired", ErrAuth},
		{"connection refused", "dial tcp 127.0.0.1:9000: connection refused", ErrNetwork},
		{"unknown", "something odd happened", ErrUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(errors.New(tt.errMsg))
			if got != tt.wantKind {
				t.Errorf("classifyError(%q) = %v, want %v", tt.errMsg, got, tt.wantKind)
			}
		})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "weird" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyError_TimeoutInterface(t *testing.T) {
	if got := classifyError(fmt.Errorf("wrapped: %w", timeoutError{})); got != ErrTimeout {
		t.Errorf("classifyError = %v, want ErrTimeout", got)
	}
}

func TestStorageError_Chain(t *testing.T) {
	err := WrapWriteError(context.Canceled, "documents/x")
	if !errors.Is(err, context.Canceled) {
		t.Error("underlying error should stay in the chain")
	}
	if !IsStorageError(fmt.Errorf("outer: %w", err)) {
		t.Error("IsStorageError should see through wrapping")
	}
	if WrapWriteError(nil, "p") != nil || WrapInitError(nil, "p") != nil {
		t.Error("wrapping nil should return nil")
	}
	want := "write documents/x: storage error: context canceled"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestS3Config(t *testing.T) {
	bucket, prefix := ParseS3Path("my-bucket/couch/prod")
	if bucket != "my-bucket" || prefix != "couch/prod" {
		t.Errorf("ParseS3Path = (%q, %q)", bucket, prefix)
	}
	bucket, prefix = ParseS3Path("only-bucket")
	if bucket != "only-bucket" || prefix != "" {
		t.Errorf("ParseS3Path = (%q, %q)", bucket, prefix)
	}

	cfg := S3Config{}
	if cfg.Validate() == nil {
		t.Error("Validate should require a bucket")
	}
	if _, err := NewS3Sink(t.Context(), cfg); err == nil {
		t.Error("NewS3Sink should reject a missing bucket")
	}
}

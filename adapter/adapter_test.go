package adapter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		base time.Duration
		i    int
		want time.Duration
	}{
		{0, 1, DefaultBackoff},
		{0, 3, 4 * DefaultBackoff},
		{10 * time.Millisecond, 1, 10 * time.Millisecond},
		{10 * time.Millisecond, 2, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Backoff(tt.base, tt.i); got != tt.want {
			t.Errorf("Backoff(%v, %d) = %v, want %v", tt.base, tt.i, got, tt.want)
		}
	}
}

func TestDocumentExtractedEvent_JSON(t *testing.T) {
	data, err := json.Marshal(&DocumentExtractedEvent{
		EventType:   EventTypeDocumentExtracted,
		DocID:       "doc1",
		Attachments: []string{"foo.png", "bar.txt"},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"event_type":"document_extracted"`) || !strings.Contains(s, `"attachments":["foo.png","bar.txt"]`) {
		t.Errorf("unexpected JSON: %s", s)
	}
	if strings.Contains(s, "pending") {
		t.Errorf("empty pending should be omitted: %s", s)
	}
}

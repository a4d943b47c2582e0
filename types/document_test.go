package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDocumentMeta_OmitsEmptySource(t *testing.T) {
	data, err := json.Marshal(DocumentMeta{RunID: "r", DocID: "d", Rev: "1-a"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "source") {
		t.Errorf("source should be omitted: %s", data)
	}
}

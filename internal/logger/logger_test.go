package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewAttachesServiceName(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, LevelInfo, "marketplace", nil)
	log.Info(context.Background(), "catalog warmed", "courses", 4)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if got := record["service"]; got != "marketplace" {
		t.Errorf("service = %v, want marketplace", got)
	}
	if got := record["msg"]; got != "catalog warmed" {
		t.Errorf("msg = %v, want catalog warmed", got)
	}
	if got := record["courses"]; got != float64(4) {
		t.Errorf("courses = %v, want 4", got)
	}
}

func TestNewWithoutServiceName(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, LevelInfo, "", nil)
	log.Warn(context.Background(), "provider unreachable")

	if strings.Contains(buf.String(), "\"service\"") {
		t.Errorf("unexpected service attribute in %q", buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got := record["msg"]; got != "provider unreachable" {
		t.Errorf("msg = %v, want provider unreachable", got)
	}
}

func TestMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, LevelWarn, "marketplace", nil)
	log.Debug(context.Background(), "poll tick")
	log.Info(context.Background(), "session state")

	if buf.Len() != 0 {
		t.Errorf("records below min level were emitted: %q", buf.String())
	}

	log.Error(context.Background(), "rpc failed")
	if buf.Len() == 0 {
		t.Error("error record was filtered out")
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hardenctl/hardenctl/internal/observability"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestJSONLLogger_EventFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &jsonlLogger{writer: &buf, minLevel: 0}

	ctx := observability.WithOpID(context.Background())
	logger.Event(ctx, "apply.start", map[string]any{"catalog": "defender"})

	entry := decodeEntry(t, &buf)

	for _, field := range []string{"ts", "level", "event", "component", "op_id", "schema_version"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if entry["event"] != "hardenctl.apply.start" {
		t.Errorf("event = %v, want namespaced hardenctl.apply.start", entry["event"])
	}
	if entry["schema_version"] != SchemaVersion {
		t.Errorf("schema_version = %v, want %s", entry["schema_version"], SchemaVersion)
	}
	if entry["op_id"] != observability.OpID(ctx) {
		t.Errorf("op_id = %v, want %v", entry["op_id"], observability.OpID(ctx))
	}
}

func TestJSONLLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := &jsonlLogger{writer: &buf, minLevel: levelPriority(LevelWarn)}

	logger.Debug("runner", "dropped")
	logger.Info("runner", "dropped")
	if buf.Len() != 0 {
		t.Fatalf("entries below min level were written: %s", buf.String())
	}

	logger.Warn("runner", "kept")
	if buf.Len() == 0 {
		t.Fatal("warn entry was filtered out")
	}
}

func TestJSONLLogger_PairedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &jsonlLogger{writer: &buf, minLevel: 0}

	logger.Info("runner", "run complete", "applied", 3, "container", "c")

	entry := decodeEntry(t, &buf)
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing: %v", entry)
	}
	if fields["applied"] != float64(3) || fields["container"] != "c" {
		t.Errorf("fields = %v", fields)
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	log := From(context.Background())
	if log == nil {
		t.Fatal("From() returned nil")
	}
	// Must not panic.
	log.Info("x", "y")
	log.Event(context.Background(), "e", nil)
	if err := log.Close(); err != nil {
		t.Errorf("noop Close() = %v", err)
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	log, err := NewLogger(Config{Format: "jsonl", Level: "info", Output: path})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	log.Info("cli", "hello")
	if err := log.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestNewLoggerUnknownFormatIsNoop(t *testing.T) {
	log, err := NewLogger(Config{Format: "pretty"})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	if _, ok := log.(*noopLogger); !ok {
		t.Errorf("unknown format produced %T, want noop", log)
	}
}

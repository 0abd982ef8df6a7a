package telemetry_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/course-agent/internal/metrics"
	"github.com/petasbytes/course-agent/internal/telemetry"
)

// readLastJSONL returns the last non-empty JSON object in baseDir/events.jsonl.
func readLastJSONL(t *testing.T, baseDir string) (map[string]any, error) {
	t.Helper()
	f, err := os.Open(filepath.Join(baseDir, "events.jsonl"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var last string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			last = txt
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if last == "" {
		return nil, errors.New("no lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func TestEmitQueryFeatures_HappyPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("AGT_ARTIFACTS_DIR", base)
	t.Setenv("AGT_OBSERVE_JSON", "1")

	ctx := telemetry.WithTurnID(context.Background(), "turn-xyz")
	query := "what is in  lesson 2\nof the MCP course"
	want := metrics.CountQueryFeatures(query)

	telemetry.EmitQueryFeatures(ctx, query)

	m, err := readLastJSONL(t, base)
	if err != nil {
		t.Fatalf("read last jsonl: %v", err)
	}
	if m["event"] != "query_features" {
		t.Fatalf("event mismatch: %v", m["event"])
	}
	if m["turn_id"] != "turn-xyz" {
		t.Fatalf("turn_id mismatch: %v", m["turn_id"])
	}
	q, ok := m["query"].(map[string]any)
	if !ok {
		t.Fatalf("query field missing or wrong type: %T", m["query"])
	}
	if q["bytes"] != float64(want.Bytes) ||
		q["runes"] != float64(want.Runes) ||
		q["words"] != float64(want.Words) ||
		q["lines"] != float64(want.Lines) ||
		q["terms"] != float64(want.Terms) ||
		q["questions"] != float64(want.Questions) {
		t.Fatalf("query features mismatch: got %#v, want %#v", q, want)
	}
}

func TestEmitQueryFeatures_ObserveOff_NoEvent(t *testing.T) {
	base := t.TempDir()
	t.Setenv("AGT_ARTIFACTS_DIR", base)
	t.Setenv("AGT_OBSERVE_JSON", "0")

	telemetry.EmitQueryFeatures(context.Background(), "some text")

	if _, err := os.Stat(filepath.Join(base, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl when observe=0, got err=%v", err)
	}
}

func TestEmitQueryFeatures_NoRawTextLeakage(t *testing.T) {
	base := t.TempDir()
	t.Setenv("AGT_ARTIFACTS_DIR", base)
	t.Setenv("AGT_OBSERVE_JSON", "1")

	query := "Foo Bar\nBaz"
	telemetry.EmitQueryFeatures(telemetry.WithTurnID(context.Background(), "turn-privacy"), query)

	b, err := os.ReadFile(filepath.Join(base, "events.jsonl"))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if strings.Contains(string(b), "Foo") || strings.Contains(string(b), "Baz") {
		t.Fatalf("raw query text found in events.jsonl")
	}
}

package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/leapcatalog/internal/state"
)

func fixtureRuns() []*state.Run {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(42 * time.Second)
	return []*state.Run{
		{
			ID:          "run-2",
			Environment: "PROD",
			Status:      state.RunStatusCompleted,
			Procedures:  12,
			StartedAt:   completed,
			CompletedAt: &completed,
		},
		{
			ID:          "run-1",
			Environment: "PROD",
			Status:      state.RunStatusFailed,
			StartedAt:   started,
			Error:       "source unavailable",
		},
	}
}

func TestRenderRunsTable(t *testing.T) {
	var out bytes.Buffer
	renderRunsTable(&out, fixtureRuns())

	got := out.String()
	for _, want := range []string{"run-2", "run-1", "completed", "failed", "(2 runs)"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderRunsJSON(t *testing.T) {
	var out bytes.Buffer
	if err := renderRunsJSON(&out, fixtureRuns()); err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len = %d, want 2", len(decoded))
	}
	if decoded[0]["id"] != "run-2" {
		t.Errorf("first id = %v", decoded[0]["id"])
	}
	if _, ok := decoded[1]["completed_at"]; ok {
		t.Error("running run must omit completed_at")
	}
	if decoded[1]["error"] != "source unavailable" {
		t.Errorf("error = %v", decoded[1]["error"])
	}
}

func TestFormatDuration(t *testing.T) {
	started := time.Now()
	done := started.Add(1500 * time.Millisecond)
	r := &state.Run{StartedAt: started, CompletedAt: &done}
	if got := formatDuration(r); got != "1.5s" {
		t.Errorf("formatDuration() = %q, want 1.5s", got)
	}
	if got := formatDuration(&state.Run{StartedAt: started}); got != "-" {
		t.Errorf("formatDuration() incomplete = %q, want -", got)
	}
}

package sinks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"warp-and-wind/server/logging"
)

func TestJSONSinkWritesEventPerLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewJSON(&buf, 0, 0)

	first := logging.Event{
		Type:     "traversal.transit_opened",
		Tick:     7,
		Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Actor:    logging.EntityRef{ID: "s1", Kind: logging.EntityKindSnake},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPortals,
		RunID:    "run-3",
	}
	if err := sink.Write(first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(logging.Event{Type: "traversal.transit_completed", Tick: 9}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	var lines [][]byte
	for scanner.Scan() {
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines", len(lines))
	}

	var wire map[string]any
	if err := json.Unmarshal(lines[0], &wire); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	if wire["type"] != "traversal.transit_opened" {
		t.Fatalf("type %v", wire["type"])
	}
	if wire["tick"] != float64(7) {
		t.Fatalf("tick %v", wire["tick"])
	}
	if wire["runId"] != "run-3" {
		t.Fatalf("runId %v", wire["runId"])
	}
	if wire["severity"] != float64(logging.SeverityInfo) {
		t.Fatalf("severity %v", wire["severity"])
	}
	actor, ok := wire["actor"].(map[string]any)
	if !ok || actor["id"] != "s1" || actor["kind"] != "snake" {
		t.Fatalf("actor %v", wire["actor"])
	}
}

func TestJSONSinkFlushesOnBatchThreshold(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewJSON(&buf, time.Hour, 2)

	if err := sink.Write(logging.Event{Type: "one", Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("flushed before the batch filled: %d bytes", buf.Len())
	}
	if err := sink.Write(logging.Event{Type: "two", Tick: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("batch threshold did not flush")
	}
}

func TestJSONSinkToleratesNilWriter(t *testing.T) {
	t.Parallel()

	sink := NewJSON(nil, 0, 0)
	if err := sink.Write(logging.Event{Type: "dropped"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

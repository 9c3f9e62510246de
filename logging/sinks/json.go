package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"warp-and-wind/server/logging"
)

// JSON emits newline-delimited structured events.
type JSON struct {
	mu        sync.Mutex
	writer    *bufio.Writer
	encoder   *json.Encoder
	autoFlush bool
	maxBatch  int
	buffered  int
}

// NewJSON constructs a JSON sink writing to the provided io.Writer. A
// non-positive flushInterval flushes after every write; otherwise a flush
// runs on the interval and whenever maxBatch events are buffered.
func NewJSON(w io.Writer, flushInterval time.Duration, maxBatch int) *JSON {
	if w == nil {
		w = io.Discard
	}
	buf := bufio.NewWriter(w)
	sink := &JSON{
		writer:    buf,
		encoder:   json.NewEncoder(buf),
		autoFlush: flushInterval <= 0,
		maxBatch:  maxBatch,
	}
	if flushInterval > 0 {
		go sink.periodicFlush(flushInterval)
	}
	return sink
}

// Write satisfies logging.Sink.
func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wire := map[string]any{
		"type":     event.Type,
		"tick":     event.Tick,
		"time":     event.Time.Format(time.RFC3339Nano),
		"severity": event.Severity,
		"category": event.Category,
		"actor":    event.Actor,
		"targets":  event.Targets,
		"payload":  event.Payload,
		"extra":    event.Extra,
		"runId":    event.RunID,
	}
	if err := s.encoder.Encode(wire); err != nil {
		return err
	}
	s.buffered++
	if s.autoFlush || (s.maxBatch > 0 && s.buffered >= s.maxBatch) {
		s.buffered = 0
		return s.writer.Flush()
	}
	return nil
}

// Close flushes buffers.
func (s *JSON) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffered = 0
	return s.writer.Flush()
}

func (s *JSON) periodicFlush(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		s.buffered = 0
		s.writer.Flush()
		s.mu.Unlock()
	}
}

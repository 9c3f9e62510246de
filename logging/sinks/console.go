package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"warp-and-wind/server/logging"
)

const (
	ansiDim    = "\x1b[90m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiReset  = "\x1b[0m"
)

type ConsoleSink struct {
	logger   *log.Logger
	useColor bool
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags), useColor: cfg.UseColor}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	s.logger.Printf("[%s] tick=%d actor=%s severity=%s category=%s%s%s%s",
		event.Type,
		event.Tick,
		formatEntity(event.Actor),
		s.severityLabel(event.Severity),
		event.Category,
		formatRun(event.RunID),
		formatTargets(event.Targets),
		formatPayload(event.Payload),
	)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func (s *ConsoleSink) severityLabel(sev logging.Severity) string {
	label := "unknown"
	color := ansiReset
	switch sev {
	case logging.SeverityDebug:
		label, color = "debug", ansiDim
	case logging.SeverityInfo:
		label, color = "info", ansiGreen
	case logging.SeverityWarn:
		label, color = "warn", ansiYellow
	case logging.SeverityError:
		label, color = "error", ansiRed
	}
	if !s.useColor {
		return label
	}
	return color + label + ansiReset
}

func formatRun(runID string) string {
	if runID == "" {
		return ""
	}
	return fmt.Sprintf(" run=%s", runID)
}

func formatEntity(ref logging.EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func formatTargets(targets []logging.EntityRef) string {
	if len(targets) == 0 {
		return ""
	}
	parts := make([]string, 0, len(targets))
	for _, target := range targets {
		parts = append(parts, formatEntity(target))
	}
	return fmt.Sprintf(" targets=%s", strings.Join(parts, ","))
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return fmt.Sprintf(" payload=%s", data)
}

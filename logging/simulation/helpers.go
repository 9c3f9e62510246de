package simulation

import (
	"context"

	"warp-and-wind/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when one tick of simulate+broadcast
	// runs longer than the tick interval.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventTickBudgetAlarm is emitted when overruns persist long enough
	// that clients will visibly stutter.
	EventTickBudgetAlarm logging.EventType = "simulation.tick_budget_alarm"
)

// TickBudgetOverrunPayload captures timing for a single budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// TickBudgetAlarmPayload captures a sustained breach.
type TickBudgetAlarmPayload struct {
	DurationMillis  int64   `json:"durationMillis"`
	BudgetMillis    int64   `json:"budgetMillis"`
	Ratio           float64 `json:"ratio"`
	Streak          uint64  `json:"streak"`
	ThresholdStreak uint64  `json:"thresholdStreak"`
}

// TickBudgetOverrun publishes a single-tick budget breach.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TickBudgetAlarm publishes a sustained budget breach.
func TickBudgetAlarm(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetAlarmPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickBudgetAlarm,
		Tick:     tick,
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

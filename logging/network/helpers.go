package network

import (
	"context"

	"warp-and-wind/server/logging"
)

const (
	// EventClientStale is emitted when a subscriber misses enough
	// heartbeats to be dropped.
	EventClientStale logging.EventType = "network.client_stale"
	// EventSendFailed is emitted when a broadcast write to one subscriber
	// fails and the connection is torn down.
	EventSendFailed logging.EventType = "network.send_failed"
	// EventResyncServed is emitted when a keyframe request is answered,
	// whether with the frame or a nack.
	EventResyncServed logging.EventType = "network.resync_served"
)

// ClientStalePayload records how long the client had been silent.
type ClientStalePayload struct {
	SilentForMS int64 `json:"silentForMs"`
}

// SendFailedPayload carries the write error text.
type SendFailedPayload struct {
	Reason string `json:"reason"`
}

// ResyncServedPayload records which snapshot sequence was asked for.
type ResyncServedPayload struct {
	Sequence uint64 `json:"sequence"`
	Nacked   bool   `json:"nacked,omitempty"`
}

// ClientStale publishes a heartbeat-timeout disconnect.
func ClientStale(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientStalePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClientStale,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SendFailed publishes a failed broadcast write.
func SendFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SendFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSendFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ResyncServed publishes a keyframe fetch, nacked or not.
func ResyncServed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResyncServedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityDebug
	if payload.Nacked {
		severity = logging.SeverityInfo
	}
	event := logging.Event{
		Type:     EventResyncServed,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

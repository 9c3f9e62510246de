package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"warp-and-wind/server/logging"
	loggingnetwork "warp-and-wind/server/logging/network"
	loggingsimulation "warp-and-wind/server/logging/simulation"
)

// Hub owns the world, the live subscribers, and the staged command queue.
// All world access funnels through the hub mutex; the tick loop and the
// socket handlers never touch the world concurrently.
type Hub struct {
	mu          sync.Mutex
	world       *World
	subscribers map[string]*subscriber
	pending     []Command
	last        time.Time

	nextID   atomic.Uint64
	sequence atomic.Uint64
}

type subscriber struct {
	conn          *websocket.Conn
	mu            sync.Mutex
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// NewHub wires a hub around an existing world.
func NewHub(world *World) *Hub {
	return &Hub{
		world:       world,
		subscribers: make(map[string]*subscriber),
	}
}

// Join registers a new snake and returns the join handshake.
func (h *Hub) Join() (joinResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := fmt.Sprintf("snake-%d", h.nextID.Add(1))
	if _, err := h.world.AddSnake(id); err != nil {
		return joinResponse{}, err
	}
	return joinResponse{
		Ver:              ProtocolVersion,
		ID:               id,
		Snapshot:         h.world.Snapshot(),
		Config:           h.world.Config(),
		KeyframeInterval: h.world.KeyframeInterval(),
	}, nil
}

// Subscribe associates a WebSocket connection with an existing snake and
// returns the snapshot to seed the client with.
func (h *Hub) Subscribe(snakeID string, conn *websocket.Conn) (*subscriber, WorldSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.world.HasSnake(snakeID) {
		return nil, WorldSnapshot{}, false
	}
	if existing, ok := h.subscribers[snakeID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn, lastHeartbeat: time.Now()}
	h.subscribers[snakeID] = sub
	return sub, h.world.Snapshot(), true
}

// Disconnect removes a snake and closes any active subscriber connection.
// The departure reaches remaining clients through the next patch broadcast.
func (h *Hub) Disconnect(snakeID string) bool {
	h.mu.Lock()
	sub, subOK := h.subscribers[snakeID]
	if subOK {
		delete(h.subscribers, snakeID)
	}
	removed := h.world.RemoveSnake(snakeID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	return removed
}

// QueueTurn stages a facing change for the next tick.
func (h *Hub) QueueTurn(snakeID, facing string) bool {
	parsed, ok := parseFacing(facing)
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.world.HasSnake(snakeID) {
		return false
	}
	h.pending = append(h.pending, Command{
		ActorID:  snakeID,
		Type:     CommandTurn,
		IssuedAt: time.Now(),
		Turn:     &TurnCommand{Facing: parsed},
	})
	return true
}

// QueueRestart stages a fresh run for the next tick.
func (h *Hub) QueueRestart(snakeID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.world.HasSnake(snakeID) {
		return false
	}
	h.pending = append(h.pending, Command{
		ActorID:  snakeID,
		Type:     CommandRestart,
		IssuedAt: time.Now(),
	})
	return true
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a snake.
func (h *Hub) UpdateHeartbeat(snakeID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[snakeID]
	if !ok {
		return 0, false
	}
	sub.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			sub.lastRTT = rtt
		}
	}
	return sub.lastRTT, true
}

// Keyframe fetches a retained snapshot, or a nack naming why it is gone.
func (h *Hub) Keyframe(seq uint64) (keyframeMessage, *keyframeNackMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	frame, ok := h.world.KeyframeBySequence(seq)
	if seq == 0 {
		frame, ok = h.world.LatestKeyframe()
	}
	if !ok {
		loggingnetwork.ResyncServed(
			context.Background(),
			h.world.publisher,
			h.world.tick,
			worldRef(),
			loggingnetwork.ResyncServedPayload{Sequence: seq, Nacked: true},
			nil,
		)
		return keyframeMessage{}, &keyframeNackMessage{
			Ver:      ProtocolVersion,
			Type:     "keyframeNack",
			Sequence: seq,
			Reason:   "pruned",
		}
	}
	loggingnetwork.ResyncServed(
		context.Background(),
		h.world.publisher,
		h.world.tick,
		worldRef(),
		loggingnetwork.ResyncServedPayload{Sequence: frame.Sequence},
		nil,
	)
	return keyframeMessage{
		Ver:      ProtocolVersion,
		Type:     "keyframe",
		Sequence: frame.Sequence,
		Tick:     frame.Tick,
		State:    frame.State,
		Config:   h.world.Config(),
	}, nil
}

// advance runs one simulation step and assembles the broadcast, returning
// any subscribers dropped for missed heartbeats.
func (h *Hub) advance(now time.Time) (stateMessage, []*subscriber) {
	h.mu.Lock()

	dt := 1.0 / float64(tickRate)
	if !h.last.IsZero() {
		if measured := now.Sub(h.last).Seconds(); measured > 0 {
			dt = measured
		}
	}
	h.last = now

	toClose := make([]*subscriber, 0)
	for id, sub := range h.subscribers {
		if sub.lastHeartbeat.IsZero() || now.Sub(sub.lastHeartbeat) <= disconnectAfter {
			continue
		}
		log.Printf("disconnecting %s due to heartbeat timeout", id)
		loggingnetwork.ClientStale(
			context.Background(),
			h.world.publisher,
			h.world.tick,
			snakeRef(id),
			loggingnetwork.ClientStalePayload{SilentForMS: now.Sub(sub.lastHeartbeat).Milliseconds()},
			nil,
		)
		delete(h.subscribers, id)
		h.world.RemoveSnake(id)
		toClose = append(toClose, sub)
	}

	commands := h.pending
	h.pending = nil
	h.world.Step(now, dt, commands)
	patches := h.world.DrainPatches()
	if patches == nil {
		// Clients expect an array even on quiet ticks.
		patches = []Patch{}
	}

	var keyframeSeq uint64
	if frame, ok := h.world.LatestKeyframe(); ok {
		keyframeSeq = frame.Sequence
	}
	msg := stateMessage{
		Ver:         ProtocolVersion,
		Type:        "state",
		Tick:        h.world.tick,
		Sequence:    h.sequence.Add(1),
		KeyframeSeq: keyframeSeq,
		ServerTime:  now.UnixMilli(),
		Patches:     patches,
	}
	h.mu.Unlock()

	return msg, toClose
}

// RunSimulation drives the fixed-rate tick loop until the context ends.
func (h *Hub) RunSimulation(ctx context.Context) {
	const tickDuration = time.Second / tickRate
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	var overrunStreak uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			started := time.Now()
			msg, toClose := h.advance(now)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(msg)

			elapsed := time.Since(started)
			if elapsed <= tickDuration {
				overrunStreak = 0
				continue
			}
			overrunStreak++
			loggingsimulation.TickBudgetOverrun(ctx, h.publisher(), msg.Tick, loggingsimulation.TickBudgetOverrunPayload{
				DurationMillis: elapsed.Milliseconds(),
				BudgetMillis:   tickDuration.Milliseconds(),
				Ratio:          float64(elapsed) / float64(tickDuration),
				Streak:         overrunStreak,
			}, nil)
			if overrunStreak == tickBudgetAlarmStreak {
				loggingsimulation.TickBudgetAlarm(ctx, h.publisher(), msg.Tick, loggingsimulation.TickBudgetAlarmPayload{
					DurationMillis:  elapsed.Milliseconds(),
					BudgetMillis:    tickDuration.Milliseconds(),
					Ratio:           float64(elapsed) / float64(tickDuration),
					Streak:          overrunStreak,
					ThresholdStreak: tickBudgetAlarmStreak,
				}, nil)
			}
		}
	}
}

// publisher returns the event publisher, which survives world resets.
func (h *Hub) publisher() logging.Publisher {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.publisher
}

// broadcastState sends one state message to every subscriber, dropping any
// connection that fails its write.
func (h *Hub) broadcastState(msg stateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.world.telemetry.broadcasts.Add(1)
	pub := h.world.publisher
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", id, err)
			loggingnetwork.SendFailed(
				context.Background(),
				pub,
				msg.Tick,
				snakeRef(id),
				loggingnetwork.SendFailedPayload{Reason: err.Error()},
				nil,
			)
			h.Disconnect(id)
		}
	}
}

// SendTo writes a payload to one subscriber under its write lock.
func (h *Hub) SendTo(snakeID string, sub *subscriber, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal message for %s: %v", snakeID, err)
		return false
	}
	sub.mu.Lock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = sub.conn.WriteMessage(websocket.TextMessage, data)
	sub.mu.Unlock()
	if err != nil {
		h.Disconnect(snakeID)
		return false
	}
	return true
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsSubscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]diagnosticsSubscriber, 0, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs = append(subs, diagnosticsSubscriber{
			ID:            id,
			LastHeartbeat: sub.lastHeartbeat.UnixMilli(),
			RTTMillis:     sub.lastRTT.Milliseconds(),
		})
	}
	return subs
}

// InitialState wraps a subscribe snapshot in the keyframe envelope clients
// boot from.
func (h *Hub) InitialState(snapshot WorldSnapshot) keyframeMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	return keyframeMessage{
		Ver:    ProtocolVersion,
		Type:   "keyframe",
		Tick:   snapshot.Tick,
		State:  snapshot,
		Config: h.world.Config(),
	}
}

// CurrentConfig returns the active world tuning.
func (h *Hub) CurrentConfig() WorldConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Config()
}

// TelemetrySnapshot exposes world counters for diagnostics.
func (h *Hub) TelemetrySnapshot() TelemetrySnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Telemetry()
}

// PortalStats exposes spawn outcome counters for diagnostics.
func (h *Hub) PortalStats() PortalManagerStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.PortalStats()
}

// ResetWorld swaps in a fresh world built from cfg, carrying every joined
// snake across. Connected clients resume from the snapshot broadcast next
// tick.
func (h *Hub) ResetWorld(cfg WorldConfig) WorldSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := append([]string(nil), h.world.order...)
	world := NewWorld(cfg, h.world.publisher)
	for _, id := range ids {
		if _, err := world.AddSnake(id); err != nil {
			log.Printf("reset dropped %s: %v", id, err)
		}
	}
	h.world = world
	return world.Snapshot()
}

// ForceKeyframe cuts a recovery keyframe immediately.
func (h *Hub) ForceKeyframe() Keyframe {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.ForceKeyframe()
}

package server

import (
	"testing"
	"time"
)

func newTestHub() *Hub {
	return NewHub(NewWorld(quietWorldConfig(), nil))
}

func TestJoinAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	first, err := h.Join()
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if first.ID != "snake-1" {
		t.Fatalf("first id %q", first.ID)
	}
	if first.Ver != ProtocolVersion {
		t.Fatalf("protocol version %d", first.Ver)
	}
	if len(first.Snapshot.Snakes) != 1 {
		t.Fatalf("first snapshot has %d snakes", len(first.Snapshot.Snakes))
	}
	if first.KeyframeInterval <= 0 {
		t.Fatalf("keyframe interval %d", first.KeyframeInterval)
	}

	second, err := h.Join()
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if second.ID != "snake-2" {
		t.Fatalf("second id %q", second.ID)
	}
	if len(second.Snapshot.Snakes) != 2 {
		t.Fatalf("second snapshot has %d snakes", len(second.Snapshot.Snakes))
	}
}

func TestQueueTurnValidatesSnakeAndFacing(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	resp, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if !h.QueueTurn(resp.ID, "up") {
		t.Fatal("valid turn refused")
	}
	if h.QueueTurn("ghost", "up") {
		t.Fatal("turn accepted for unknown snake")
	}
	if h.QueueTurn(resp.ID, "sideways") {
		t.Fatal("garbage facing accepted")
	}
	if len(h.pending) != 1 {
		t.Fatalf("%d staged commands, want 1", len(h.pending))
	}
}

func TestAdvanceDrainsCommandsAndBroadcastsPatches(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	resp, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	now := time.Now()
	first, dropped := h.advance(now)
	if len(dropped) != 0 {
		t.Fatalf("dropped %d subscribers with none connected", len(dropped))
	}
	if first.Type != "state" || first.Ver != ProtocolVersion {
		t.Fatalf("broadcast envelope %+v", first)
	}
	if first.Sequence != 1 {
		t.Fatalf("first sequence %d", first.Sequence)
	}
	// The join patches ride the first broadcast after it.
	var sawSpawn bool
	for _, p := range first.Patches {
		if p.Kind == PatchSnakeSpawned && p.EntityID == resp.ID {
			sawSpawn = true
		}
	}
	if !sawSpawn {
		t.Fatalf("join spawn missing from the first broadcast: %+v", first.Patches)
	}

	if !h.QueueRestart(resp.ID) {
		t.Fatal("restart refused")
	}
	second, _ := h.advance(now.Add(100 * time.Millisecond))
	if second.Sequence != 2 || second.Tick != 2 {
		t.Fatalf("second broadcast sequence=%d tick=%d", second.Sequence, second.Tick)
	}
	if len(h.pending) != 0 {
		t.Fatalf("%d commands survived the tick", len(h.pending))
	}
	var sawRun bool
	for _, p := range second.Patches {
		if p.Kind == PatchRunStarted {
			sawRun = true
		}
	}
	if !sawRun {
		t.Fatalf("restart missing from the broadcast: %+v", second.Patches)
	}
}

func TestAdvanceDropsStaleSubscribers(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	resp, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	now := time.Now()
	h.subscribers[resp.ID] = &subscriber{lastHeartbeat: now.Add(-disconnectAfter - time.Second)}

	msg, dropped := h.advance(now)
	if len(dropped) != 1 {
		t.Fatalf("dropped %d subscribers, want 1", len(dropped))
	}
	if h.world.HasSnake(resp.ID) {
		t.Fatal("timed-out snake still on the field")
	}
	if _, ok := h.subscribers[resp.ID]; ok {
		t.Fatal("timed-out subscriber still registered")
	}
	var sawLeft bool
	for _, p := range msg.Patches {
		if p.Kind == PatchSnakeLeft && p.EntityID == resp.ID {
			sawLeft = true
		}
	}
	if !sawLeft {
		t.Fatalf("departure missing from the broadcast: %+v", msg.Patches)
	}
}

func TestFreshHeartbeatSurvivesAdvance(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	resp, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	now := time.Now()
	h.subscribers[resp.ID] = &subscriber{lastHeartbeat: now.Add(-heartbeatInterval)}

	if _, dropped := h.advance(now); len(dropped) != 0 {
		t.Fatalf("dropped %d subscribers inside the grace period", len(dropped))
	}
	if !h.world.HasSnake(resp.ID) {
		t.Fatal("snake removed despite a live heartbeat")
	}
}

func TestKeyframeFetchAndNack(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	if _, err := h.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	frame := h.ForceKeyframe()

	msg, nack := h.Keyframe(frame.Sequence)
	if nack != nil {
		t.Fatalf("retained keyframe nacked: %+v", nack)
	}
	if msg.Type != "keyframe" || msg.Sequence != frame.Sequence || msg.Tick != frame.Tick {
		t.Fatalf("keyframe envelope %+v", msg)
	}
	if len(msg.State.Snakes) != 1 {
		t.Fatalf("keyframe state has %d snakes", len(msg.State.Snakes))
	}

	latest, nack := h.Keyframe(0)
	if nack != nil || latest.Sequence != frame.Sequence {
		t.Fatalf("zero sequence did not fetch the latest: %+v %+v", latest, nack)
	}

	if _, nack = h.Keyframe(frame.Sequence + 100); nack == nil {
		t.Fatal("missing keyframe fetched without a nack")
	} else if nack.Reason != "pruned" || nack.Sequence != frame.Sequence+100 {
		t.Fatalf("nack %+v", nack)
	}
}

func TestUpdateHeartbeatTracksRTT(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	h.subscribers["snake-1"] = &subscriber{}

	receivedAt := time.Now()
	sent := receivedAt.Add(-40 * time.Millisecond).UnixMilli()
	rtt, ok := h.UpdateHeartbeat("snake-1", receivedAt, sent)
	if !ok {
		t.Fatal("heartbeat refused for a registered subscriber")
	}
	if rtt <= 0 || rtt > time.Second {
		t.Fatalf("rtt %v out of range", rtt)
	}
	if got := h.subscribers["snake-1"].lastHeartbeat; !got.Equal(receivedAt) {
		t.Fatalf("heartbeat time %v, want %v", got, receivedAt)
	}

	if _, ok := h.UpdateHeartbeat("ghost", receivedAt, sent); ok {
		t.Fatal("heartbeat accepted for unknown subscriber")
	}
}

func TestSubscribeRequiresJoinedSnake(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	if _, _, ok := h.Subscribe("ghost", nil); ok {
		t.Fatal("subscribe succeeded for a snake that never joined")
	}

	resp, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	sub, snapshot, ok := h.Subscribe(resp.ID, nil)
	if !ok || sub == nil {
		t.Fatal("subscribe refused for a joined snake")
	}
	if len(snapshot.Snakes) != 1 {
		t.Fatalf("subscribe snapshot has %d snakes", len(snapshot.Snakes))
	}

	boot := h.InitialState(snapshot)
	if boot.Type != "keyframe" || boot.Tick != snapshot.Tick {
		t.Fatalf("initial state envelope %+v", boot)
	}
}

func TestResetWorldCarriesSnakesAcross(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	first, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	second, err := h.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	cfg := quietWorldConfig()
	cfg.GridCols = 16
	snap := h.ResetWorld(cfg)
	if snap.Cols != 16 {
		t.Fatalf("reset snapshot cols %d", snap.Cols)
	}
	if len(snap.Snakes) != 2 {
		t.Fatalf("reset snapshot has %d snakes", len(snap.Snakes))
	}
	if !h.world.HasSnake(first.ID) || !h.world.HasSnake(second.ID) {
		t.Fatal("joined snakes lost in the reset")
	}
	if h.CurrentConfig().GridCols != 16 {
		t.Fatalf("config cols %d after reset", h.CurrentConfig().GridCols)
	}
}

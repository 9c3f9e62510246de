package server

import (
	"errors"
	"math"
	"testing"
)

func testPortalPair(t *testing.T, durations PortalDurations) *portalState {
	t.Helper()
	a := PortalEndpoint{ID: "pair-1-a", Position: GridPos{Col: 3, Row: 4}}
	b := PortalEndpoint{ID: "pair-1-b", Position: GridPos{Col: 10, Row: 8}}
	pair, err := newPortalPair("pair-1", a, b, durations)
	if err != nil {
		t.Fatalf("newPortalPair: %v", err)
	}
	return pair
}

func TestPortalPairValidation(t *testing.T) {
	t.Parallel()

	same := GridPos{Col: 5, Row: 5}
	_, err := newPortalPair("pair-1",
		PortalEndpoint{ID: "a", Position: same},
		PortalEndpoint{ID: "b", Position: same},
		defaultPortalDurations(),
	)
	if !errors.Is(err, errPortalEndpointsColocated) {
		t.Fatalf("expected colocated-endpoint error, got %v", err)
	}

	_, err = newPortalPair("pair-1",
		PortalEndpoint{ID: "dup", Position: GridPos{Col: 1, Row: 1}},
		PortalEndpoint{ID: "dup", Position: GridPos{Col: 2, Row: 2}},
		defaultPortalDurations(),
	)
	if !errors.Is(err, errPortalEndpointIDCollide) {
		t.Fatalf("expected id-collision error, got %v", err)
	}
}

func TestPortalPairLinksEndpointsByID(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	if pair.A.PairID != "pair-1" || pair.B.PairID != "pair-1" {
		t.Fatalf("endpoints not stamped with pair id: %+v %+v", pair.A, pair.B)
	}
	if pair.A.LinkedID != pair.B.ID || pair.B.LinkedID != pair.A.ID {
		t.Fatalf("endpoints not cross-linked: %+v %+v", pair.A, pair.B)
	}
}

func TestPortalLifecycleBoundaries(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	if pair.Phase != PortalPhaseSpawning {
		t.Fatalf("fresh pair should be spawning, got %q", pair.Phase)
	}

	transitions := pair.advance(500)
	if pair.Phase != PortalPhaseActive {
		t.Fatalf("after 500ms expected active, got %q", pair.Phase)
	}
	if len(transitions) != 1 || transitions[0].From != PortalPhaseSpawning || transitions[0].To != PortalPhaseActive {
		t.Fatalf("unexpected transitions %+v", transitions)
	}
	if transitions[0].ElapsedMS != 500 {
		t.Fatalf("spawning boundary at %vms, want 500", transitions[0].ElapsedMS)
	}

	transitions = pair.advance(7500)
	if pair.Phase != PortalPhaseCollapsing {
		t.Fatalf("after 8000ms total expected collapsing, got %q", pair.Phase)
	}
	if len(transitions) != 1 || transitions[0].ElapsedMS != 8000 {
		t.Fatalf("active boundary transitions %+v, want one at 8000", transitions)
	}

	transitions = pair.advance(500)
	if pair.Phase != PortalPhaseCollapsed {
		t.Fatalf("after 8500ms total expected collapsed, got %q", pair.Phase)
	}
	if len(transitions) != 1 || transitions[0].ElapsedMS != 8500 {
		t.Fatalf("collapsing boundary transitions %+v, want one at 8500", transitions)
	}

	if more := pair.advance(1000); more != nil {
		t.Fatalf("collapsed pair advanced again: %+v", more)
	}
	if pair.elapsedTotalMS != 8500 {
		t.Fatalf("terminal clock moved to %v, want 8500", pair.elapsedTotalMS)
	}
}

func TestPortalAdvanceCrossesManyBoundariesInOneCall(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	transitions := pair.advance(8600)
	if pair.Phase != PortalPhaseCollapsed {
		t.Fatalf("expected collapsed, got %q", pair.Phase)
	}
	if len(transitions) != 3 {
		t.Fatalf("expected 3 transitions, got %d: %+v", len(transitions), transitions)
	}
	wantElapsed := []float64{500, 8000, 8500}
	for i, tr := range transitions {
		if tr.ElapsedMS != wantElapsed[i] {
			t.Fatalf("transition %d at %vms, want %v", i, tr.ElapsedMS, wantElapsed[i])
		}
	}
	if pair.elapsedTotalMS != 8500 {
		t.Fatalf("terminal clock at %v, want 8500", pair.elapsedTotalMS)
	}
}

func TestPortalAdvanceChunkingEquivalence(t *testing.T) {
	t.Parallel()

	const totalMS = 9000

	chunked := testPortalPair(t, defaultPortalDurations())
	single := testPortalPair(t, defaultPortalDurations())

	var chunkedTransitions []PortalTransition
	for i := 0; i < totalMS; i++ {
		chunkedTransitions = append(chunkedTransitions, chunked.advance(1)...)
	}
	singleTransitions := single.advance(totalMS)

	if chunked.Phase != single.Phase {
		t.Fatalf("phases diverged: chunked %q single %q", chunked.Phase, single.Phase)
	}
	if chunked.elapsedTotalMS != single.elapsedTotalMS {
		t.Fatalf("total clocks diverged: chunked %v single %v", chunked.elapsedTotalMS, single.elapsedTotalMS)
	}
	if chunked.elapsedInPhaseMS != single.elapsedInPhaseMS {
		t.Fatalf("phase clocks diverged: chunked %v single %v", chunked.elapsedInPhaseMS, single.elapsedInPhaseMS)
	}
	if len(chunkedTransitions) != len(singleTransitions) {
		t.Fatalf("transition counts diverged: chunked %d single %d", len(chunkedTransitions), len(singleTransitions))
	}
	for i := range singleTransitions {
		if chunkedTransitions[i] != singleTransitions[i] {
			t.Fatalf("transition %d diverged: chunked %+v single %+v", i, chunkedTransitions[i], singleTransitions[i])
		}
	}
}

func TestPortalAdvanceIgnoresBadDeltas(t *testing.T) {
	t.Parallel()

	deltas := []float64{0, -1, -500, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, delta := range deltas {
		pair := testPortalPair(t, defaultPortalDurations())
		if transitions := pair.advance(delta); transitions != nil {
			t.Fatalf("delta %v produced transitions %+v", delta, transitions)
		}
		if pair.Phase != PortalPhaseSpawning || pair.elapsedTotalMS != 0 || pair.elapsedInPhaseMS != 0 {
			t.Fatalf("delta %v mutated pair: %+v", delta, pair)
		}
	}
}

func TestPortalZeroDurationPhasesSkipWithoutHanging(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, PortalDurations{})
	transitions := pair.advance(1)
	if pair.Phase != PortalPhaseCollapsed {
		t.Fatalf("all-zero durations should collapse on first advance, got %q", pair.Phase)
	}
	if len(transitions) != 3 {
		t.Fatalf("expected 3 transitions, got %d: %+v", len(transitions), transitions)
	}
	for _, tr := range transitions {
		if tr.ElapsedMS != 0 {
			t.Fatalf("zero-span crossing recorded at %vms, want 0", tr.ElapsedMS)
		}
	}
}

func TestPortalBeginCollapseIdempotent(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	pair.advance(600)

	transition, ok := pair.beginCollapse()
	if !ok || transition.From != PortalPhaseActive || transition.To != PortalPhaseCollapsing {
		t.Fatalf("unexpected forced transition %+v ok=%v", transition, ok)
	}
	if transition.ElapsedMS != 600 {
		t.Fatalf("forced transition at %vms, want 600", transition.ElapsedMS)
	}

	pair.advance(200)
	if pair.elapsedInPhaseMS != 200 {
		t.Fatalf("collapsing clock at %v, want 200", pair.elapsedInPhaseMS)
	}

	if _, ok := pair.beginCollapse(); ok {
		t.Fatal("beginCollapse on a collapsing pair reported a transition")
	}
	if pair.elapsedInPhaseMS != 200 {
		t.Fatalf("repeat beginCollapse reset the phase clock to %v", pair.elapsedInPhaseMS)
	}
}

func TestPortalCollapseImmediately(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	transition, ok := pair.collapseImmediately()
	if !ok || transition.From != PortalPhaseSpawning || transition.To != PortalPhaseCollapsed {
		t.Fatalf("unexpected transition %+v ok=%v", transition, ok)
	}
	if pair.Phase != PortalPhaseCollapsed || pair.elapsedInPhaseMS != 0 {
		t.Fatalf("pair not hard-collapsed: %+v", pair)
	}
	if _, ok := pair.collapseImmediately(); ok {
		t.Fatal("collapseImmediately on a collapsed pair reported a transition")
	}
}

func TestPortalTraversableByPhase(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	if !pair.isTraversable() {
		t.Fatal("spawning pair should admit entry")
	}
	pair.advance(500)
	if !pair.isTraversable() {
		t.Fatal("active pair should admit entry")
	}
	pair.beginCollapse()
	if pair.isTraversable() {
		t.Fatal("collapsing pair should refuse entry")
	}
	pair.collapseImmediately()
	if pair.isTraversable() {
		t.Fatal("collapsed pair should refuse entry")
	}
}

func TestPortalLinkedExitBidirectional(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())

	exit, ok := pair.linkedExit(pair.A.Position)
	if !ok || !exit.Equals(pair.B.Position) {
		t.Fatalf("exit for A = %+v ok=%v, want %+v", exit, ok, pair.B.Position)
	}
	exit, ok = pair.linkedExit(pair.B.Position)
	if !ok || !exit.Equals(pair.A.Position) {
		t.Fatalf("exit for B = %+v ok=%v, want %+v", exit, ok, pair.A.Position)
	}
	if _, ok := pair.linkedExit(GridPos{Col: 0, Row: 0}); ok {
		t.Fatal("non-endpoint cell resolved an exit")
	}

	if !pair.occupies(pair.A.Position) || !pair.occupies(pair.B.Position) {
		t.Fatal("pair does not report its own endpoints")
	}
	if pair.occupies(GridPos{Col: 0, Row: 0}) {
		t.Fatal("pair claims a foreign cell")
	}
}

func TestPortalPhaseProgress(t *testing.T) {
	t.Parallel()

	pair := testPortalPair(t, defaultPortalDurations())
	if got := pair.phaseProgress(); got != 0 {
		t.Fatalf("fresh progress %v, want 0", got)
	}
	pair.advance(250)
	if got := pair.phaseProgress(); got != 0.5 {
		t.Fatalf("half-spawned progress %v, want 0.5", got)
	}
	pair.advance(250)
	if got := pair.phaseProgress(); got != 0 {
		t.Fatalf("progress right after crossing %v, want 0", got)
	}
	pair.advance(3750)
	if got := pair.phaseProgress(); got != 0.5 {
		t.Fatalf("half-active progress %v, want 0.5", got)
	}
	pair.collapseImmediately()
	if got := pair.phaseProgress(); got != 1 {
		t.Fatalf("collapsed progress %v, want 1", got)
	}

	view := pair.view()
	if view.Progress != 1 || view.Phase != PortalPhaseCollapsed {
		t.Fatalf("view out of sync: %+v", view)
	}
}

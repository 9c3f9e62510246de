package server

import (
	"errors"
	"fmt"
	"math"
)

// PortalPhase identifies one stage of a pair's lifecycle.
type PortalPhase string

const (
	// PortalPhaseSpawning is the materialization window right after placement.
	PortalPhaseSpawning PortalPhase = "spawning"
	// PortalPhaseActive is the fully open window.
	PortalPhaseActive PortalPhase = "active"
	// PortalPhaseCollapsing is the wind-down; entry is refused.
	PortalPhaseCollapsing PortalPhase = "collapsing"
	// PortalPhaseCollapsed is terminal; the manager sweeps these pairs out.
	PortalPhaseCollapsed PortalPhase = "collapsed"
)

var (
	errPortalEndpointsColocated = errors.New("endpoints share a cell")
	errPortalEndpointIDCollide  = errors.New("endpoint ids collide")
)

// PortalDurations configures the lifecycle clock in milliseconds. ActiveMS is
// a total budget measured from materialization, so the open window itself
// lasts ActiveMS-SpawningMS.
type PortalDurations struct {
	SpawningMS   float64 `json:"spawningMs"`
	ActiveMS     float64 `json:"activeMs"`
	CollapsingMS float64 `json:"collapsingMs"`
}

func defaultPortalDurations() PortalDurations {
	return PortalDurations{
		SpawningMS:   defaultPortalSpawningMS,
		ActiveMS:     defaultPortalActiveMS,
		CollapsingMS: defaultPortalCollapsingMS,
	}
}

// normalized replaces non-finite or negative durations with the defaults.
// Zero stays: a zero-length phase is skipped on the next advance.
func (d PortalDurations) normalized() PortalDurations {
	if !finiteNonNegative(d.SpawningMS) {
		d.SpawningMS = defaultPortalSpawningMS
	}
	if !finiteNonNegative(d.ActiveMS) {
		d.ActiveMS = defaultPortalActiveMS
	}
	if !finiteNonNegative(d.CollapsingMS) {
		d.CollapsingMS = defaultPortalCollapsingMS
	}
	return d
}

// phaseSpan returns the configured length of a single phase.
func (d PortalDurations) phaseSpan(phase PortalPhase) float64 {
	switch phase {
	case PortalPhaseSpawning:
		return math.Max(d.SpawningMS, 0)
	case PortalPhaseActive:
		return math.Max(d.ActiveMS-d.SpawningMS, 0)
	case PortalPhaseCollapsing:
		return math.Max(d.CollapsingMS, 0)
	default:
		return 0
	}
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// PortalEndpoint is one mouth of a linked pair. Endpoints reference their
// partner by id rather than by pointer so views stay plain values.
type PortalEndpoint struct {
	ID       string  `json:"id"`
	PairID   string  `json:"pairId"`
	LinkedID string  `json:"linkedId"`
	Position GridPos `json:"position"`
}

// Portal is the wire-facing view of one pair.
type Portal struct {
	ID       string         `json:"id"`
	A        PortalEndpoint `json:"a"`
	B        PortalEndpoint `json:"b"`
	Phase    PortalPhase    `json:"phase"`
	Progress float64        `json:"progress"`
}

// portalState carries the mutable lifecycle clock behind a Portal view.
type portalState struct {
	Portal
	durations        PortalDurations
	elapsedTotalMS   float64
	elapsedInPhaseMS float64
}

// newPortalPair links two endpoints under one lifecycle starting in spawning.
// The caller supplies endpoint ids and positions; pair and link ids are
// filled in here. Construction fails when the endpoints would share a cell
// or an id.
func newPortalPair(pairID string, a, b PortalEndpoint, durations PortalDurations) (*portalState, error) {
	if a.Position.Equals(b.Position) {
		return nil, fmt.Errorf("portal pair %q: %w", pairID, errPortalEndpointsColocated)
	}
	if a.ID == b.ID {
		return nil, fmt.Errorf("portal pair %q: %w", pairID, errPortalEndpointIDCollide)
	}
	a.PairID = pairID
	b.PairID = pairID
	a.LinkedID = b.ID
	b.LinkedID = a.ID
	return &portalState{
		Portal:    Portal{ID: pairID, A: a, B: b, Phase: PortalPhaseSpawning},
		durations: durations.normalized(),
	}, nil
}

// PortalTransition records one boundary crossing performed during an advance.
// ElapsedMS is the pair's total elapsed time at the moment of the crossing.
type PortalTransition struct {
	PairID    string      `json:"pairId"`
	From      PortalPhase `json:"from"`
	To        PortalPhase `json:"to"`
	ElapsedMS float64     `json:"elapsedMs"`
}

func nextPortalPhase(phase PortalPhase) PortalPhase {
	switch phase {
	case PortalPhaseSpawning:
		return PortalPhaseActive
	case PortalPhaseActive:
		return PortalPhaseCollapsing
	default:
		return PortalPhaseCollapsed
	}
}

// advance moves the lifecycle clock forward by deltaMS and returns every
// boundary crossed, oldest first. Negative, NaN or infinite deltas leave the
// pair untouched. A single large delta and the same total split over many
// calls land in the same state. A delta that reaches a boundary exactly
// crosses it.
func (p *portalState) advance(deltaMS float64) []PortalTransition {
	if p == nil || !(deltaMS > 0) || math.IsInf(deltaMS, 0) {
		return nil
	}
	if p.Phase == PortalPhaseCollapsed {
		return nil
	}
	var transitions []PortalTransition
	remaining := deltaMS
	for remaining > 0 && p.Phase != PortalPhaseCollapsed {
		span := p.durations.phaseSpan(p.Phase)
		left := span - p.elapsedInPhaseMS
		if left > remaining {
			p.elapsedInPhaseMS += remaining
			p.elapsedTotalMS += remaining
			break
		}
		if left < 0 {
			left = 0
		}
		p.elapsedTotalMS += left
		remaining -= left
		from := p.Phase
		p.Phase = nextPortalPhase(from)
		p.elapsedInPhaseMS = 0
		transitions = append(transitions, PortalTransition{
			PairID:    p.ID,
			From:      from,
			To:        p.Phase,
			ElapsedMS: p.elapsedTotalMS,
		})
	}
	return transitions
}

// beginCollapse forces a spawning or active pair into its wind-down. Pairs
// already collapsing or collapsed are left exactly as they are, the in-phase
// clock included.
func (p *portalState) beginCollapse() (PortalTransition, bool) {
	if p == nil || (p.Phase != PortalPhaseSpawning && p.Phase != PortalPhaseActive) {
		return PortalTransition{}, false
	}
	from := p.Phase
	p.Phase = PortalPhaseCollapsing
	p.elapsedInPhaseMS = 0
	return PortalTransition{
		PairID:    p.ID,
		From:      from,
		To:        PortalPhaseCollapsing,
		ElapsedMS: p.elapsedTotalMS,
	}, true
}

// collapseImmediately skips the wind-down entirely.
func (p *portalState) collapseImmediately() (PortalTransition, bool) {
	if p == nil || p.Phase == PortalPhaseCollapsed {
		return PortalTransition{}, false
	}
	from := p.Phase
	p.Phase = PortalPhaseCollapsed
	p.elapsedInPhaseMS = 0
	return PortalTransition{
		PairID:    p.ID,
		From:      from,
		To:        PortalPhaseCollapsed,
		ElapsedMS: p.elapsedTotalMS,
	}, true
}

// isTraversable reports whether a head may enter. Spawning pairs already
// admit entry; collapsing and collapsed pairs refuse it.
func (p *portalState) isTraversable() bool {
	return p != nil && (p.Phase == PortalPhaseSpawning || p.Phase == PortalPhaseActive)
}

func (p *portalState) occupies(pos GridPos) bool {
	return p != nil && (p.A.Position.Equals(pos) || p.B.Position.Equals(pos))
}

// endpointAt returns the endpoint sitting on pos, if any.
func (p *portalState) endpointAt(pos GridPos) (PortalEndpoint, bool) {
	switch {
	case p == nil:
		return PortalEndpoint{}, false
	case p.A.Position.Equals(pos):
		return p.A, true
	case p.B.Position.Equals(pos):
		return p.B, true
	}
	return PortalEndpoint{}, false
}

func (p *portalState) endpointByID(id string) (PortalEndpoint, bool) {
	switch {
	case p == nil:
		return PortalEndpoint{}, false
	case p.A.ID == id:
		return p.A, true
	case p.B.ID == id:
		return p.B, true
	}
	return PortalEndpoint{}, false
}

// linkedExit resolves the partner cell for an entry at pos. Either endpoint
// serves as an entry; the result is a copy of the partner's position.
func (p *portalState) linkedExit(pos GridPos) (GridPos, bool) {
	entry, ok := p.endpointAt(pos)
	if !ok {
		return GridPos{}, false
	}
	exit, ok := p.endpointByID(entry.LinkedID)
	if !ok {
		return GridPos{}, false
	}
	return exit.Position, true
}

// phaseProgress reports how far the current phase has run, in [0,1].
// Rendering reads it; nothing in the simulation keys off it.
func (p *portalState) phaseProgress() float64 {
	if p == nil {
		return 0
	}
	if p.Phase == PortalPhaseCollapsed {
		return 1
	}
	span := p.durations.phaseSpan(p.Phase)
	if span <= 0 {
		return 1
	}
	frac := p.elapsedInPhaseMS / span
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// view clones the pair into its broadcast form with progress filled in.
func (p *portalState) view() Portal {
	portal := p.Portal
	portal.Progress = p.phaseProgress()
	return portal
}

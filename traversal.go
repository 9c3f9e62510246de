package server

// TraversalState tracks one chain mid-flight through a pair.
// SegmentsRemaining counts the segments still on the entry side.
type TraversalState struct {
	PairID            string  `json:"pairId"`
	EntryPos          GridPos `json:"entryPos"`
	ExitPos           GridPos `json:"exitPos"`
	SegmentsRemaining int     `json:"segmentsRemaining"`
}

// PortalSplit describes how a mid-transit chain divides across a pair for
// rendering. ExitSideCount counts the head-inclusive segments already
// through; Progress runs 0..1 over the threading.
type PortalSplit struct {
	Active        bool    `json:"active"`
	PairID        string  `json:"pairId,omitempty"`
	ExitSideCount int     `json:"exitSideCount"`
	Progress      float64 `json:"progress"`
}

// resolvePortalEntry decides whether a head landing on next warps through a
// pair. It returns the final head cell, the transit to install, and whether
// an entry happened. A chain already threading passes over endpoints without
// re-entering, and a single-segment chain warps without opening a transit.
func resolvePortalEntry(portals *PortalManager, next GridPos, chainLen int, existing *TraversalState) (GridPos, *TraversalState, bool) {
	if portals == nil || existing != nil {
		return next, existing, false
	}
	pair, ok := portals.pairAt(next)
	if !ok || !pair.isTraversable() {
		return next, existing, false
	}
	exit, ok := pair.linkedExit(next)
	if !ok {
		return next, existing, false
	}
	if chainLen <= 1 {
		return exit, nil, true
	}
	return exit, &TraversalState{
		PairID:            pair.ID,
		EntryPos:          next,
		ExitPos:           exit,
		SegmentsRemaining: chainLen - 1,
	}, true
}

// threadTransit advances the transit bookkeeping after a chain shift: the
// segment that crossed this step must now sit on the exit cell. Clears the
// transit once the whole chain is through.
func threadTransit(s *snakeState) bool {
	t := s.transit
	if t == nil {
		return false
	}
	idx := len(s.Segments) - t.SegmentsRemaining
	if idx < 0 || idx >= len(s.Segments) {
		s.transit = nil
		return false
	}
	if !s.Segments[idx].Equals(t.ExitPos) {
		return false
	}
	t.SegmentsRemaining--
	if t.SegmentsRemaining <= 0 {
		s.transit = nil
	}
	return true
}

// forceCompleteTransit teleports every segment still on the entry side to the
// exit cell in one shot and clears the transit. Returns how many segments
// moved.
func forceCompleteTransit(s *snakeState) int {
	t := s.transit
	if t == nil {
		return 0
	}
	moved := 0
	for i := len(s.Segments) - t.SegmentsRemaining; i < len(s.Segments); i++ {
		if i < 0 {
			continue
		}
		s.Segments[i] = t.ExitPos
		moved++
	}
	s.transit = nil
	return moved
}

// transitBroken reports whether the pair backing a transit can no longer be
// crossed: collapsing, collapsed, or already swept away.
func transitBroken(portals *PortalManager, t *TraversalState) bool {
	if t == nil {
		return false
	}
	pair, ok := portals.pairByID(t.PairID)
	return !ok || !pair.isTraversable()
}

// portalSplit derives the render split for a chain. Chains not threading
// report an inactive split at full progress.
func portalSplit(s *snakeState) PortalSplit {
	if s.transit == nil {
		return PortalSplit{Progress: 1}
	}
	return splitForRemaining(s.transit.PairID, len(s.Segments), s.transit.SegmentsRemaining)
}

// splitForRemaining computes the render split for a chain of the given
// length with remaining segments still on the entry side.
func splitForRemaining(pairID string, length, remaining int) PortalSplit {
	if remaining <= 0 || length <= 1 {
		return PortalSplit{Progress: 1}
	}
	progress := 1 - float64(remaining)/float64(length-1)
	if progress < 0 {
		progress = 0
	}
	return PortalSplit{
		Active:        true,
		PairID:        pairID,
		ExitSideCount: length - remaining,
		Progress:      progress,
	}
}

package server

// Snake is the wire-facing body of one player's chain, head first.
type Snake struct {
	ID       string          `json:"id"`
	Segments []GridPos       `json:"segments"`
	Facing   FacingDirection `json:"facing"`
	Score    int             `json:"score"`
	Alive    bool            `json:"alive"`
}

// SnakeView is the broadcast form of a snake plus its derived render state.
type SnakeView struct {
	Snake
	Split      PortalSplit `json:"split"`
	ImmunityMS float64     `json:"immunityMs"`
}

// DeathCause labels why a snake died.
type DeathCause string

const (
	DeathCauseWall   DeathCause = "wall"
	DeathCauseSelf   DeathCause = "self"
	DeathCauseSnake  DeathCause = "snake"
	DeathCauseHazard DeathCause = "hazard"
)

// snakeState carries the cadence and transit bookkeeping behind a Snake view.
type snakeState struct {
	Snake
	pendingFacings []FacingDirection
	stepAccumMS    float64
	immunityMS     float64
	transit        *TraversalState
}

// newSnakeState lays a chain of the given length with its head on head and
// the body trailing opposite the facing.
func newSnakeState(id string, head GridPos, facing FacingDirection, length int) *snakeState {
	if length < 1 {
		length = 1
	}
	segments := make([]GridPos, length)
	back := facing.Opposite()
	pos := head
	for i := range segments {
		segments[i] = pos
		pos = pos.Stepped(back)
	}
	return &snakeState{
		Snake: Snake{ID: id, Segments: segments, Facing: facing, Alive: true},
	}
}

func (s *snakeState) headPos() GridPos {
	if len(s.Segments) == 0 {
		return GridPos{}
	}
	return s.Segments[0]
}

// queueFacing buffers one turn for an upcoming chain step. Turns that repeat
// or reverse the facing in effect when they would apply are dropped, and the
// buffer holds at most facingQueueLimit entries.
func (s *snakeState) queueFacing(facing FacingDirection) bool {
	if len(s.pendingFacings) >= facingQueueLimit {
		return false
	}
	effective := s.Facing
	if n := len(s.pendingFacings); n > 0 {
		effective = s.pendingFacings[n-1]
	}
	if facing == effective || facing == effective.Opposite() {
		return false
	}
	s.pendingFacings = append(s.pendingFacings, facing)
	return true
}

// nextFacing pops the turn that applies to this chain step.
func (s *snakeState) nextFacing() FacingDirection {
	if len(s.pendingFacings) == 0 {
		return s.Facing
	}
	facing := s.pendingFacings[0]
	s.pendingFacings = s.pendingFacings[1:]
	return facing
}

// advanceChain shifts every segment toward the head and places the head on
// next. Growing keeps the tail cell instead of vacating it.
func (s *snakeState) advanceChain(next GridPos, grow bool) {
	if grow {
		s.Segments = append(s.Segments, GridPos{})
	}
	for i := len(s.Segments) - 1; i > 0; i-- {
		s.Segments[i] = s.Segments[i-1]
	}
	s.Segments[0] = next
}

// occupies reports whether any segment sits on pos.
func (s *snakeState) occupies(pos GridPos) bool {
	for _, seg := range s.Segments {
		if seg.Equals(pos) {
			return true
		}
	}
	return false
}

// blocksOwnHead reports whether moving the head onto next would hit the
// snake's own body. The tail cell does not block unless the chain is about
// to grow, since it vacates on the same step.
func (s *snakeState) blocksOwnHead(next GridPos, growing bool) bool {
	limit := len(s.Segments)
	if !growing {
		limit--
	}
	for i := 0; i < limit; i++ {
		if s.Segments[i].Equals(next) {
			return true
		}
	}
	return false
}

// view clones the snake with its transit descriptor for broadcast.
func (s *snakeState) view() SnakeView {
	snake := s.Snake
	snake.Segments = append([]GridPos(nil), s.Segments...)
	return SnakeView{
		Snake:      snake,
		Split:      portalSplit(s),
		ImmunityMS: s.immunityMS,
	}
}

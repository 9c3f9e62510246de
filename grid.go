package server

// GridPos identifies a single play-field cell by column and row.
type GridPos struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Equals reports whether two positions name the same cell.
func (p GridPos) Equals(other GridPos) bool {
	return p == other
}

// ManhattanDistance returns the taxicab distance between two cells.
func (p GridPos) ManhattanDistance(other GridPos) int {
	return absInt(p.Col-other.Col) + absInt(p.Row-other.Row)
}

// Stepped returns the neighbouring cell one step toward the facing.
func (p GridPos) Stepped(facing FacingDirection) GridPos {
	dc, dr := facing.Delta()
	return GridPos{Col: p.Col + dc, Row: p.Row + dr}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FacingDirection identifies one of the four grid movement directions.
type FacingDirection string

const (
	FacingUp    FacingDirection = "up"
	FacingDown  FacingDirection = "down"
	FacingLeft  FacingDirection = "left"
	FacingRight FacingDirection = "right"
)

const defaultFacing = FacingRight

// Delta returns the column and row offsets of a single step. Row zero is the
// top of the play-field.
func (f FacingDirection) Delta() (int, int) {
	switch f {
	case FacingUp:
		return 0, -1
	case FacingDown:
		return 0, 1
	case FacingLeft:
		return -1, 0
	case FacingRight:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse facing, used to reject 180 degree turns.
func (f FacingDirection) Opposite() FacingDirection {
	switch f {
	case FacingUp:
		return FacingDown
	case FacingDown:
		return FacingUp
	case FacingLeft:
		return FacingRight
	case FacingRight:
		return FacingLeft
	}
	return f
}

func parseFacing(raw string) (FacingDirection, bool) {
	switch FacingDirection(raw) {
	case FacingUp:
		return FacingUp, true
	case FacingDown:
		return FacingDown, true
	case FacingLeft:
		return FacingLeft, true
	case FacingRight:
		return FacingRight, true
	}
	return defaultFacing, false
}

func inBounds(pos GridPos, cols, rows int) bool {
	return pos.Col >= 0 && pos.Col < cols && pos.Row >= 0 && pos.Row < rows
}

// CellSet tracks a collection of occupied play-field cells.
type CellSet map[GridPos]struct{}

// NewCellSet builds a set from the provided positions.
func NewCellSet(positions ...GridPos) CellSet {
	set := make(CellSet, len(positions))
	for _, pos := range positions {
		set.Add(pos)
	}
	return set
}

// Add marks a cell as occupied.
func (s CellSet) Add(pos GridPos) {
	s[pos] = struct{}{}
}

// Contains reports whether a cell is in the set.
func (s CellSet) Contains(pos GridPos) bool {
	_, ok := s[pos]
	return ok
}

// Blocked satisfies OccupancyFunc so a CellSet can be passed straight to the
// portal manager.
func (s CellSet) Blocked(pos GridPos) bool {
	return s.Contains(pos)
}

// OccupancyFunc reports whether a cell is currently blocked for placement.
// The world rebuilds one every update from snake bodies, food, and hazards.
type OccupancyFunc func(GridPos) bool

// RandomSource yields values in [0,1). All spawn and placement decisions flow
// through an injected source so seeded runs replay identically.
type RandomSource interface {
	Float64() float64
}

// randomIndex draws one index in [0,n) through the source, clamped so a
// Float64 of exactly the upper edge cannot escape the range.
func randomIndex(n int, rng RandomSource) int {
	if n <= 1 || rng == nil {
		return 0
	}
	idx := int(rng.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// freeCells enumerates every cell the predicate leaves open, row-major from
// the top-left so candidate order never depends on map iteration.
func freeCells(cols, rows int, occupied OccupancyFunc) []GridPos {
	cells := make([]GridPos, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			pos := GridPos{Col: col, Row: row}
			if occupied != nil && occupied(pos) {
				continue
			}
			cells = append(cells, pos)
		}
	}
	return cells
}

// randomFreeCell draws one open cell, reporting false on a full board.
func randomFreeCell(cols, rows int, occupied OccupancyFunc, rng RandomSource) (GridPos, bool) {
	cells := freeCells(cols, rows, occupied)
	if len(cells) == 0 {
		return GridPos{}, false
	}
	return cells[randomIndex(len(cells), rng)], true
}

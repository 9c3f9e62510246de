package server

import "testing"

func TestFacingDeltaAndOpposite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		facing   FacingDirection
		dc, dr   int
		opposite FacingDirection
	}{
		{FacingUp, 0, -1, FacingDown},
		{FacingDown, 0, 1, FacingUp},
		{FacingLeft, -1, 0, FacingRight},
		{FacingRight, 1, 0, FacingLeft},
	}
	for _, tc := range cases {
		dc, dr := tc.facing.Delta()
		if dc != tc.dc || dr != tc.dr {
			t.Fatalf("%s delta (%d,%d), want (%d,%d)", tc.facing, dc, dr, tc.dc, tc.dr)
		}
		if got := tc.facing.Opposite(); got != tc.opposite {
			t.Fatalf("%s opposite %q, want %q", tc.facing, got, tc.opposite)
		}
	}
}

func TestParseFacingFallsBackOnGarbage(t *testing.T) {
	t.Parallel()

	if f, ok := parseFacing("down"); !ok || f != FacingDown {
		t.Fatalf("parseFacing(down) = %q, %v", f, ok)
	}
	if f, ok := parseFacing("sideways"); ok || f != defaultFacing {
		t.Fatalf("parseFacing(sideways) = %q, %v; want default and false", f, ok)
	}
}

func TestSteppedMovesOneCell(t *testing.T) {
	t.Parallel()

	start := GridPos{Col: 3, Row: 3}
	if got := start.Stepped(FacingUp); !got.Equals(GridPos{Col: 3, Row: 2}) {
		t.Fatalf("stepped up to %+v", got)
	}
	if got := start.Stepped(FacingRight); !got.Equals(GridPos{Col: 4, Row: 3}) {
		t.Fatalf("stepped right to %+v", got)
	}
}

func TestManhattanDistance(t *testing.T) {
	t.Parallel()

	a := GridPos{Col: 1, Row: 2}
	b := GridPos{Col: 4, Row: 0}
	if d := a.ManhattanDistance(b); d != 5 {
		t.Fatalf("distance %d, want 5", d)
	}
	if d := b.ManhattanDistance(a); d != 5 {
		t.Fatalf("distance is not symmetric: %d", d)
	}
	if d := a.ManhattanDistance(a); d != 0 {
		t.Fatalf("self distance %d, want 0", d)
	}
}

func TestCellSetBlocked(t *testing.T) {
	t.Parallel()

	set := NewCellSet(GridPos{Col: 0, Row: 0}, GridPos{Col: 2, Row: 1})
	if !set.Blocked(GridPos{Col: 2, Row: 1}) {
		t.Fatal("member cell reported free")
	}
	if set.Blocked(GridPos{Col: 1, Row: 1}) {
		t.Fatal("free cell reported blocked")
	}
	set.Add(GridPos{Col: 1, Row: 1})
	if !set.Contains(GridPos{Col: 1, Row: 1}) {
		t.Fatal("added cell missing from set")
	}
}

func TestRandomIndexStaysInRange(t *testing.T) {
	t.Parallel()

	if idx := randomIndex(5, &scriptedRandom{values: []float64{0.9999}}); idx != 4 {
		t.Fatalf("high draw gave %d, want 4", idx)
	}
	if idx := randomIndex(5, &scriptedRandom{values: []float64{0}}); idx != 0 {
		t.Fatalf("low draw gave %d, want 0", idx)
	}
	if idx := randomIndex(0, &scriptedRandom{values: []float64{0.5}}); idx != 0 {
		t.Fatalf("empty range gave %d", idx)
	}
	if idx := randomIndex(3, nil); idx != 0 {
		t.Fatalf("nil source gave %d", idx)
	}
}

func TestFreeCellsEnumeratesRowMajor(t *testing.T) {
	t.Parallel()

	occupied := NewCellSet(GridPos{Col: 1, Row: 0})
	cells := freeCells(2, 2, occupied.Blocked)
	want := []GridPos{{Col: 0, Row: 0}, {Col: 0, Row: 1}, {Col: 1, Row: 1}}
	if len(cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(cells), len(want))
	}
	for i := range want {
		if !cells[i].Equals(want[i]) {
			t.Fatalf("cell %d is %+v, want %+v", i, cells[i], want[i])
		}
	}
}

func TestRandomFreeCellReportsFullBoard(t *testing.T) {
	t.Parallel()

	occupied := NewCellSet(
		GridPos{Col: 0, Row: 0}, GridPos{Col: 1, Row: 0},
		GridPos{Col: 0, Row: 1}, GridPos{Col: 1, Row: 1},
	)
	if _, ok := randomFreeCell(2, 2, occupied.Blocked, &scriptedRandom{values: []float64{0.5}}); ok {
		t.Fatal("full board produced a free cell")
	}

	occupied = NewCellSet(GridPos{Col: 0, Row: 0})
	pos, ok := randomFreeCell(2, 1, occupied.Blocked, &scriptedRandom{values: []float64{0}})
	if !ok || !pos.Equals(GridPos{Col: 1, Row: 0}) {
		t.Fatalf("expected the single open cell, got %+v, %v", pos, ok)
	}
}

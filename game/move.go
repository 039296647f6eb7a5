package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// traversal walks every line of the grid away from the target edge.
// With swap set, the line index addresses a column instead of a row.
type traversal struct {
	start  int
	stop   int
	stride int
	swap   bool
}

func traversalFor(d Direction, size int) traversal {
	switch d {
	case Left:
		return traversal{start: 0, stop: size, stride: 1}
	case Right:
		return traversal{start: size - 1, stop: -1, stride: -1}
	case Up:
		return traversal{start: 0, stop: size, stride: 1, swap: true}
	case Down:
		return traversal{start: size - 1, stop: -1, stride: -1, swap: true}
	default:
		panic(fmt.Sprintf("unexpected direction %d", int(d)))
	}
}

func (t traversal) index(size, line, j int) int {
	if t.swap {
		return j*size + line
	}
	return line*size + j
}

// SlideAndMerge compacts and merges the grid toward the edge of d in place.
// It reports whether any tile moved and the total value of merged tiles.
// A tile takes part in at most one merge per call; tiles at TileCap never merge.
func SlideAndMerge(g *Grid, d Direction) (changed bool, gained int) {
	t := traversalFor(d, g.size)
	cells := g.cells
	for line := 0; line < g.size; line++ {
		cursor := t.start
		merged := true // nothing to merge into at the edge
		for j := t.start; j != t.stop; j += t.stride {
			src := t.index(g.size, line, j)
			v := cells[src]
			if v == Empty {
				continue
			}
			if !merged && v < TileCap {
				prev := t.index(g.size, line, cursor-t.stride)
				if cells[prev] == v {
					cells[prev] = v * 2
					cells[src] = Empty
					merged = true
					gained += int(v * 2)
					changed = true
					continue
				}
			}
			if j != cursor {
				cells[t.index(g.size, line, cursor)] = v
				cells[src] = Empty
				changed = true
			}
			cursor += t.stride
			merged = false
		}
	}
	return changed, gained
}

// Legal reports whether sliding toward d would change the grid. It never mutates g.
func Legal(g *Grid, d Direction) bool {
	t := traversalFor(d, g.size)
	cells := g.cells
	for line := 0; line < g.size; line++ {
		cursor := t.start
		merged := true
		for j := t.start; j != t.stop; j += t.stride {
			v := cells[t.index(g.size, line, j)]
			if v == Empty {
				continue
			}
			if !merged && v < TileCap && cells[t.index(g.size, line, cursor-t.stride)] == v {
				return true
			}
			if j != cursor {
				return true
			}
			cursor += t.stride
			merged = false
		}
	}
	return false
}

// LegalMoves filters Directions by Legal, keeping their order.
func LegalMoves(g *Grid) []Direction {
	return AppendLegalMoves(make([]Direction, 0, len(Directions)), g)
}

// AppendLegalMoves appends the legal directions to dst, for callers reusing a buffer.
func AppendLegalMoves(dst []Direction, g *Grid) []Direction {
	for _, d := range Directions {
		if Legal(g, d) {
			dst = append(dst, d)
		}
	}
	return dst
}

func hasLegalMove(g *Grid) bool {
	for _, d := range Directions {
		if Legal(g, d) {
			return true
		}
	}
	return false
}

// EmptyCells lists the empty positions in row-major order.
func EmptyCells(g *Grid) []Cell {
	cells := make([]Cell, 0, EmptyCount(g))
	for i, v := range g.cells {
		if v == Empty {
			cells = append(cells, Cell{Row: i / g.size, Col: i % g.size})
		}
	}
	return cells
}

func EmptyCount(g *Grid) int {
	n := 0
	for _, v := range g.cells {
		if v == Empty {
			n++
		}
	}
	return n
}

// Spawn places a 2 (with probability prob2) or a 4 on a uniformly chosen empty cell.
func Spawn(g *Grid, prob2 float64, rng *rand.Rand) error {
	free := EmptyCount(g)
	if free == 0 {
		return fmt.Errorf("%w: spawn on a full grid", ErrPrecondition)
	}
	pick := rng.Intn(free)
	value := Tile(4)
	if rng.Float64() < prob2 {
		value = 2
	}
	for i, v := range g.cells {
		if v != Empty {
			continue
		}
		if pick == 0 {
			g.cells[i] = value
			return nil
		}
		pick--
	}
	panic("unexpected: empty cell count changed during spawn")
}

// IsTerminal reports whether the grid is full and no direction changes it.
func IsTerminal(g *Grid) bool {
	return EmptyCount(g) == 0 && !hasLegalMove(g)
}

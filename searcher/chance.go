package searcher

import (
	"game2048/game"
)

// chance is a CHANCE node: a 2 or a 4 appears on any empty cell.
// Values are summed over cells, not averaged, so boards with more empty
// cells score higher. b is restored before returning.
func (w *worker) chance(b *game.Board, depth, ply int) float64 {
	if depth <= 0 {
		return w.leaf(b)
	}
	w.metrics.AddChanceNode()

	grid := b.Grid()
	size := grid.Size()
	twos, fours := 0.0, 0.0
	spawned := false
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if grid.Get(r, c) != game.Empty {
				continue
			}
			v2, v4 := w.outcomes(b, game.Cell{Row: r, Col: c}, depth, ply)
			twos += v2
			fours += v4
			spawned = true
		}
	}

	if !spawned { // Full grid
		return w.leaf(b)
	}
	return Prob2*twos + Prob4*fours
}

// outcomes returns the MAX values after a 2 and after a 4 spawn on cell.
func (w *worker) outcomes(b *game.Board, cell game.Cell, depth, ply int) (float64, float64) {
	b.SetTile(cell, 2)
	v2 := w.decision(b, depth-1, ply)
	b.SetTile(cell, 4)
	v4 := w.decision(b, depth-1, ply)
	b.Clear(cell)
	return v2, v4
}

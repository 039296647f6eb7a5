package searcher

import (
	"math"

	"game2048/game"
)

// worker evaluates one subtree. It owns one scratch board per ply so
// branches are simulated by restoring a reused buffer instead of allocating.
type worker struct {
	evaluate game.Evaluate
	metrics  Collector
	scratch  []*game.Board
}

func newWorker(evaluate game.Evaluate, metrics Collector, plies int) *worker {
	return &worker{
		evaluate: evaluate,
		metrics:  metrics,
		scratch:  make([]*game.Board, 0, max(plies, 0)),
	}
}

func (w *worker) scratchAt(ply int, template *game.Board) *game.Board {
	for len(w.scratch) <= ply {
		w.scratch = append(w.scratch, template.Clone())
	}
	return w.scratch[ply]
}

func (w *worker) leaf(b *game.Board) float64 {
	w.metrics.AddEvaluation()
	return w.evaluate(b)
}

// decision is a MAX node: the player picks the direction with the best chance value.
// b is left unchanged.
func (w *worker) decision(b *game.Board, depth, ply int) float64 {
	if depth <= 0 {
		return w.leaf(b)
	}

	best := math.Inf(-1)
	moved := false
	for _, d := range game.Directions {
		if !game.Legal(b.Grid(), d) {
			continue
		}
		child := w.scratchAt(ply, b)
		b.CopyTo(child)
		child.Move(d)
		if score := w.chance(child, depth, ply+1); score > best {
			best = score
		}
		moved = true
	}

	if !moved { // Terminal board
		return w.leaf(b)
	}
	return best
}

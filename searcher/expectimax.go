package searcher

import (
	"fmt"

	"game2048/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Expectimax alternates MAX nodes (player moves) and CHANCE nodes (tile
// spawns) down to an adaptive depth and plays the direction with the best
// expected value. It is not safe for concurrent FindMove calls.
type Expectimax struct {
	depth int
	settings
}

func NewExpectimax(depth int, options ...Option) (*Expectimax, error) {
	if depth < 0 {
		return nil, fmt.Errorf("%w: negative expectimax depth %d", game.ErrConfiguration, depth)
	}
	return &Expectimax{
		depth:    depth,
		settings: applyOptions(options),
	}, nil
}

func (e *Expectimax) FindMove(b *game.Board) (game.Direction, SearchMetric, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return 0, SearchMetric{}, ErrNoLegalMove
	}

	e.metrics.Start(PolicyExpectimax, e.goroutines, e.depth)
	if len(moves) == 1 {
		return moves[0], e.metrics.Complete(), nil
	}

	depth := AdaptiveDepth(e.depth, game.EmptyCount(b.Grid()))
	scores, err := e.scoreMoves(b, moves, depth)
	if err != nil {
		return 0, SearchMetric{}, err
	}
	best := argmax(scores)

	log.Debug().
		Stringer("move", moves[best]).
		Int("depth", depth).
		Floats64("scores", scores).
		Msg("expectimax decision")
	return moves[best], e.metrics.Complete(), nil
}

// task expands one spawn cell of one root move.
type task struct {
	move int
	cell game.Cell
}

// scoreMoves returns the CHANCE value of each root move. Every (move, empty
// cell) pair is an independent task on a bounded pool; partial sums are
// combined in cell order so the result does not depend on scheduling.
func (e *Expectimax) scoreMoves(b *game.Board, moves []game.Direction, depth int) ([]float64, error) {
	scores := make([]float64, len(moves))
	children := make([]*game.Board, len(moves))
	var tasks []task
	for i, d := range moves {
		child := b.Clone()
		child.Move(d)
		children[i] = child
		if depth <= 0 {
			continue
		}
		for _, cell := range game.EmptyCells(child.Grid()) {
			tasks = append(tasks, task{move: i, cell: cell})
		}
	}

	if depth <= 0 {
		w := newWorker(e.evaluate, e.metrics, 0)
		for i, child := range children {
			scores[i] = w.chance(child, depth, 0)
		}
		return scores, nil
	}

	twos := make([]float64, len(tasks))
	fours := make([]float64, len(tasks))
	var g errgroup.Group
	g.SetLimit(e.goroutines)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			board := children[t.move].Clone()
			w := newWorker(e.evaluate, e.metrics, depth)
			twos[i], fours[i] = w.outcomes(board, t.cell, depth, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	spawned := make([]bool, len(moves))
	twoSums := make([]float64, len(moves))
	fourSums := make([]float64, len(moves))
	for i, t := range tasks {
		twoSums[t.move] += twos[i]
		fourSums[t.move] += fours[i]
		spawned[t.move] = true
	}
	for i := range moves {
		if !spawned[i] {
			scores[i] = newWorker(e.evaluate, e.metrics, 0).leaf(children[i])
			continue
		}
		e.metrics.AddChanceNode()
		scores[i] = Prob2*twoSums[i] + Prob4*fourSums[i]
	}
	return scores, nil
}

package searcher

import (
	"fmt"
	"math"

	"game2048/game"
)

// ErrNoLegalMove is returned when a search is requested on a finished game.
var ErrNoLegalMove = fmt.Errorf("%w: no legal move", game.ErrPrecondition)

const (
	PolicyExpectimax = "expectimax"
	PolicyMonteCarlo = "montecarlo"
)

type Searcher interface {
	// FindMove returns the chosen direction and the metrics (if collected) of the search.
	// It never mutates b.
	FindMove(b *game.Board) (game.Direction, SearchMetric, error)
}

// AdaptiveDepth deepens the search when the board is tight and shortens it
// when many empty cells widen the chance nodes.
func AdaptiveDepth(depth, empties int) int {
	switch {
	case empties <= EndgameEmpties:
		return depth + 1
	case empties >= OpeningEmpties:
		return depth - 1
	default:
		return depth
	}
}

// argmax returns the index of the first maximum.
func argmax(scores []float64) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, score := range scores {
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

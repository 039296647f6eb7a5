package searcher

import (
	"fmt"
	"math"

	"game2048/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

type Aggregation string

const (
	AggregateSum Aggregation = "sum"
	AggregateMin Aggregation = "min"
)

func ParseAggregation(s string) (Aggregation, error) {
	switch a := Aggregation(s); a {
	case AggregateSum, AggregateMin:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown aggregation %q (want sum or min)", game.ErrConfiguration, s)
	}
}

// MonteCarlo scores each root move by playing random games from the
// position it leads to. It is not safe for concurrent FindMove calls.
type MonteCarlo struct {
	maxDepth    int
	trials      int
	aggregation Aggregation
	settings
}

func NewMonteCarlo(maxDepth, trials int, aggregation string, options ...Option) (*MonteCarlo, error) {
	agg, err := ParseAggregation(aggregation)
	if err != nil {
		return nil, err
	}
	if trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", game.ErrConfiguration, trials)
	}
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: max depth must be positive, got %d", game.ErrConfiguration, maxDepth)
	}
	return &MonteCarlo{
		maxDepth:    maxDepth,
		trials:      trials,
		aggregation: agg,
		settings:    applyOptions(options),
	}, nil
}

func (m *MonteCarlo) FindMove(b *game.Board) (game.Direction, SearchMetric, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return 0, SearchMetric{}, ErrNoLegalMove
	}

	m.metrics.Start(PolicyMonteCarlo, m.goroutines, m.maxDepth)
	if len(moves) == 1 {
		return moves[0], m.metrics.Complete(), nil
	}

	// Seeds are drawn before any rollout starts so each direction replays
	// the same random games whatever the pool size.
	seeds := make([]uint64, len(moves))
	for i := range seeds {
		seeds[i] = m.rng.Uint64()
	}

	scores := make([]float64, len(moves))
	var g errgroup.Group
	g.SetLimit(m.goroutines)
	for i, d := range moves {
		i, d := i, d
		g.Go(func() error {
			scores[i] = m.rollouts(b, d, rand.New(rand.NewSource(seeds[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, SearchMetric{}, err
	}
	best := argmax(scores)

	log.Debug().
		Stringer("move", moves[best]).
		Str("aggregation", string(m.aggregation)).
		Floats64("scores", scores).
		Msg("monte carlo decision")
	return moves[best], m.metrics.Complete(), nil
}

// rollouts plays d on a copy of b, without a spawn, then plays m.trials
// random games from that snapshot and aggregates their final scores.
func (m *MonteCarlo) rollouts(b *game.Board, d game.Direction, rng *rand.Rand) float64 {
	root := b.Clone()
	root.SetRand(rng)
	root.Move(d)
	sim := root.Clone()

	total := 0.0
	lowest := math.Inf(1)
	moves := make([]game.Direction, 0, len(game.Directions))
	for trial := 0; trial < m.trials; trial++ {
		root.CopyTo(sim)
		for turn := 0; turn < m.maxDepth && !sim.IsGameOver(); turn++ {
			moves = game.AppendLegalMoves(moves[:0], sim.Grid())
			if len(moves) == 0 {
				break
			}
			if err := sim.Turn(moves[rng.Intn(len(moves))]); err != nil {
				panic(fmt.Sprintf("unexpected rollout error: %v", err))
			}
		}
		m.metrics.AddRollout()

		score := float64(sim.Score())
		total += score
		lowest = min(lowest, score)
	}

	if m.aggregation == AggregateMin {
		return lowest
	}
	return total
}

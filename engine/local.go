package engine

import (
	"context"
	"fmt"
	"time"

	"game2048/experiments/metrics"
	"game2048/game"
	"game2048/meta"
	"game2048/searcher"
	"game2048/utils"

	"github.com/rs/zerolog/log"
)

type Option func(e *LocalEngine)

func WithMaxTurns(maxTurns int) Option {
	return func(e *LocalEngine) {
		if maxTurns > 0 {
			e.maxTurns = maxTurns
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *LocalEngine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithSeed records the seed the board was created with.
func WithSeed(seed uint64) Option {
	return func(e *LocalEngine) {
		e.seed = seed
	}
}

// LocalEngine drives one game in process: it asks the searcher for a move,
// plays it with a spawn and publishes the result.
type LocalEngine struct {
	board     *game.Board
	searcher  searcher.Searcher
	maxTurns  int
	seed      uint64
	observers []Observer
}

func NewLocalEngine(board *game.Board, s searcher.Searcher, options ...Option) *LocalEngine {
	if board == nil || s == nil {
		panic("engine needs a board and a searcher")
	}
	e := &LocalEngine{
		board:    board,
		searcher: s,
		maxTurns: meta.MAX_TURNS,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *LocalEngine) Board() *game.Board {
	return e.board
}

// Run executes the game loop. On cancellation or a searcher failure the
// metrics gathered so far are returned with the error.
func (e *LocalEngine) Run(ctx context.Context) (metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{Seed: e.seed, StartTime: time.Now()}
	var moveMetrics []metrics.MoveMetric

	log.Info().Msgf("starting game on a %dx%d board", e.board.Grid().Size(), e.board.Grid().Size())
	e.publish(0, nil)

	var err error
	turn := 0
	for !e.board.IsGameOver() && turn < e.maxTurns {
		if err = ctx.Err(); err != nil {
			break
		}

		var move game.Direction
		var searchMetric searcher.SearchMetric
		move, searchMetric, err = e.findMove()
		if err != nil {
			err = fmt.Errorf("turn %d: %w", turn+1, err)
			break
		}
		if err = e.board.Turn(move); err != nil {
			err = fmt.Errorf("turn %d: %w", turn+1, err)
			break
		}
		turn++

		grid := e.board.Grid()
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Turn:         turn,
			Move:         move,
			Score:        e.board.Score(),
			MaxTile:      grid.MaxTile(),
			EmptyCells:   game.EmptyCount(grid),
			SearchMetric: searchMetric,
		})
		e.publish(turn, &move)

		log.Debug().
			Int("turn", turn).
			Stringer("move", move).
			Int("score", e.board.Score()).
			Msg("played turn")
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = turn
	gameMetric.Score = e.board.Score()
	gameMetric.MaxTile = e.board.Grid().MaxTile()
	gameMetric.Won = gameMetric.MaxTile >= metrics.WinningTile
	gameMetric.GameOver = e.board.IsGameOver()

	if gameMetric.GameOver {
		log.Info().Msgf("game over after %d turns with score %d and max tile %d", turn, gameMetric.Score, gameMetric.MaxTile)
	} else {
		log.Info().Msgf("stopped after %d turns with score %d", turn, gameMetric.Score)
	}
	return gameMetric, moveMetrics, err
}

// findMove asks the searcher and falls back to the first legal move when
// the answer cannot be played.
func (e *LocalEngine) findMove() (game.Direction, searcher.SearchMetric, error) {
	move, searchMetric, err := e.searcher.FindMove(e.board)
	if err != nil {
		return move, searchMetric, err
	}

	legal := e.board.LegalMoves()
	if utils.FindIndex(legal, move) < 0 {
		if len(legal) == 0 {
			return move, searchMetric, searcher.ErrNoLegalMove
		}
		log.Warn().Msgf("searcher returned illegal move %s, playing %s instead", move, legal[0])
		return legal[0], searchMetric, nil
	}
	return move, searchMetric, nil
}

func (e *LocalEngine) publish(turn int, move *game.Direction) {
	if len(e.observers) == 0 {
		return
	}
	u := Update{
		Turn:     turn,
		Move:     move,
		Grid:     e.board.Grid().Rows(),
		Score:    e.board.Score(),
		GameOver: e.board.IsGameOver(),
	}
	for _, o := range e.observers {
		o.Publish(u)
	}
}

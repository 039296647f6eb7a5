package engine

import (
	"context"

	"game2048/experiments/metrics"
	"game2048/game"
)

type Engine interface {
	// Run plays until the game is over, a turn limit is reached or ctx is done
	Run(ctx context.Context) (gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}

// Update is published after every turn, and once for the starting position.
type Update struct {
	Turn     int             `json:"turn"`
	Move     *game.Direction `json:"move,omitempty"` // Nil for the starting position
	Grid     [][]game.Tile   `json:"grid"`
	Score    int             `json:"score"`
	GameOver bool            `json:"game_over"`
}

type Observer interface {
	Publish(u Update)
}

type ObserverFunc func(u Update)

func (f ObserverFunc) Publish(u Update) { f(u) }

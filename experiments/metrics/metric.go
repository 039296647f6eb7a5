package metrics

import (
	"time"

	"game2048/game"
	"game2048/searcher"
)

// WinningTile is the tile that counts a game as won. Play continues past it.
const WinningTile game.Tile = 2048

type AgentConfig struct {
	ID int
	searcher.Config
}

type MoveMetric struct {
	Turn       int
	Move       game.Direction
	Score      int // After the turn
	MaxTile    game.Tile
	EmptyCells int
	searcher.SearchMetric
}

type GameMetric struct {
	Seed       uint64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
	Score      int
	MaxTile    game.Tile
	Won        bool // Reached WinningTile
	GameOver   bool // False when the session was cut off by a turn limit or cancellation
}

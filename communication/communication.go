package communication

import (
	"encoding/json"
	"fmt"

	"game2048/game"
	"game2048/searcher"

	"golang.org/x/exp/rand"
)

const (
	PingPath = "/api/ping"
	MovePath = "/api/move"
	WSPath   = "/ws"
)

// MoveRequest asks the move service for a decision on a position.
// A nil Config uses the service's own.
type MoveRequest struct {
	Grid   [][]game.Tile    `json:"grid"`
	Score  int              `json:"score"`
	Config *searcher.Config `json:"config,omitempty"`
}

type MoveResponse struct {
	Direction game.Direction        `json:"direction"`
	Metrics   searcher.SearchMetric `json:"metrics"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Message is a websocket frame: Type names the payload.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMoveRequest(b *game.Board, config *searcher.Config) MoveRequest {
	return MoveRequest{
		Grid:   b.Grid().Rows(),
		Score:  b.Score(),
		Config: config,
	}
}

// Board rebuilds the requested position. Spawns during search use rng.
func (r MoveRequest) Board(prob2 float64, rng *rand.Rand) (*game.Board, error) {
	grid, err := game.GridFromRows(r.Grid)
	if err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return game.NewBoardFromGrid(grid, r.Score, prob2, rng)
}

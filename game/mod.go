package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration reports an invalid setting, detected at construction.
	ErrConfiguration = errors.New("configuration error")
	// ErrPrecondition reports an operation requested on a board that cannot serve it
	// (spawning on a full grid, moving on a terminal board).
	ErrPrecondition = errors.New("precondition violation")
)

// Direction is the edge tiles slide toward.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Directions lists every direction in tie-breaking order.
var Directions = [...]Direction{Left, Right, Up, Down}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "a":
		return Left, nil
	case "right", "r", "d":
		return Right, nil
	case "up", "u", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if d < Left || d > Down {
		return nil, fmt.Errorf("unknown direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Evaluates a board to a scalar quality; larger is better for the player.
type Evaluate func(*Board) float64

package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Board is a grid plus the bookkeeping of one game: score, termination and
// the spawn distribution. It is owned by a single goroutine at a time;
// searchers simulate on copies (see CopyTo), never on the authoritative board.
type Board struct {
	grid     *Grid
	score    int
	gameOver bool
	prob2    float64    // Probability that a spawned tile is a 2
	rng      *rand.Rand // Source for spawn positions and values
}

// NewBoard returns a size×size board with two spawned tiles.
func NewBoard(size int, prob2 float64, rng *rand.Rand) (*Board, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: grid size %d, need at least 2", ErrConfiguration, size)
	}
	b, err := NewBoardFromGrid(NewGrid(size), 0, prob2, rng)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if err := b.Spawn(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// NewBoardFromGrid wraps an existing position. The board takes ownership of grid.
func NewBoardFromGrid(grid *Grid, score int, prob2 float64, rng *rand.Rand) (*Board, error) {
	if prob2 < 0 || prob2 > 1 {
		return nil, fmt.Errorf("%w: prob2 %v outside [0,1]", ErrConfiguration, prob2)
	}
	if score < 0 {
		return nil, fmt.Errorf("%w: negative score %d", ErrConfiguration, score)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrConfiguration)
	}
	return &Board{
		grid:     grid,
		score:    score,
		gameOver: IsTerminal(grid),
		prob2:    prob2,
		rng:      rng,
	}, nil
}

func (b *Board) Grid() *Grid      { return b.grid }
func (b *Board) Score() int       { return b.score }
func (b *Board) Prob2() float64   { return b.prob2 }
func (b *Board) IsGameOver() bool { return b.gameOver }

func (b *Board) LegalMoves() []Direction {
	return LegalMoves(b.grid)
}

// Move slides toward d and adds merged values to the score. The caller is
// expected to spawn afterwards when the grid changed.
func (b *Board) Move(d Direction) bool {
	changed, gained := SlideAndMerge(b.grid, d)
	b.score += gained
	return changed
}

func (b *Board) Spawn() error {
	if err := Spawn(b.grid, b.prob2, b.rng); err != nil {
		return err
	}
	b.gameOver = IsTerminal(b.grid)
	return nil
}

// Turn plays one full turn: a legal move followed by a spawn.
func (b *Board) Turn(d Direction) error {
	if b.gameOver {
		return fmt.Errorf("%w: move %s on a finished game", ErrPrecondition, d)
	}
	if !Legal(b.grid, d) {
		return fmt.Errorf("%w: move %s does not change the grid", ErrPrecondition, d)
	}
	b.Move(d)
	return b.Spawn()
}

// Place puts v on an empty cell without touching the score.
func (b *Board) Place(c Cell, v Tile) {
	b.grid.Set(c.Row, c.Col, v)
	b.gameOver = IsTerminal(b.grid)
}

// SetTile puts v on an empty cell without refreshing the termination flag.
// Search pairs it with Clear to try a spawn and undo it.
func (b *Board) SetTile(c Cell, v Tile) {
	b.grid.Set(c.Row, c.Col, v)
}

func (b *Board) Clear(c Cell) {
	b.grid.Set(c.Row, c.Col, Empty)
	b.gameOver = false
}

// CopyTo overwrites dst with b's position (grid, score, termination, prob2).
// dst keeps its own random source, falling back to b's when it has none.
func (b *Board) CopyTo(dst *Board) {
	if dst.grid == nil {
		dst.grid = b.grid.Clone()
	} else {
		b.grid.CopyTo(dst.grid)
	}
	dst.score = b.score
	dst.gameOver = b.gameOver
	dst.prob2 = b.prob2
	if dst.rng == nil {
		dst.rng = b.rng
	}
}

// Clone returns an independent copy sharing b's random source.
func (b *Board) Clone() *Board {
	c := &Board{}
	b.CopyTo(c)
	return c
}

// SetRand replaces the random source used by Spawn.
func (b *Board) SetRand(rng *rand.Rand) {
	b.rng = rng
}

func (b *Board) String() string {
	return fmt.Sprintf("%sscore: %d\n", b.grid, b.score)
}

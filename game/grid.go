package game

import (
	"fmt"
	"math/bits"
	"strings"
)

// Tile is a cell value. Real tiles are powers of two >= 2.
type Tile uint32

// Empty marks a cell without a tile.
const Empty Tile = 0

// TileCap is the largest tile. Two tiles at the cap do not merge, so every
// merge result fits in a Tile.
const TileCap Tile = 1 << 30

// Cell addresses a grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is an N×N matrix of tiles stored row-major. Its size never changes.
type Grid struct {
	size  int
	cells []Tile
}

func NewGrid(size int) *Grid {
	if size <= 0 {
		panic(fmt.Sprintf("invalid grid size %d", size))
	}
	return &Grid{size: size, cells: make([]Tile, size*size)}
}

// GridFromRows builds a grid from a square matrix, checking every tile.
func GridFromRows(rows [][]Tile) (*Grid, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrConfiguration)
	}
	g := NewGrid(n)
	for r, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrConfiguration, r, len(row), n)
		}
		for c, v := range row {
			if !IsTile(v) {
				return nil, fmt.Errorf("%w: cell (%d,%d) holds %d, not a power of two in [2, %d]", ErrConfiguration, r, c, v, TileCap)
			}
			g.cells[r*n+c] = v
		}
	}
	return g, nil
}

// IsTile reports whether v is Empty or a legal tile value.
func IsTile(v Tile) bool {
	return v == Empty || (v >= 2 && v <= TileCap && bits.OnesCount32(uint32(v)) == 1)
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) Get(row, col int) Tile {
	return g.cells[row*g.size+col]
}

func (g *Grid) Set(row, col int, v Tile) {
	g.cells[row*g.size+col] = v
}

func (g *Grid) Rows() [][]Tile {
	rows := make([][]Tile, g.size)
	for r := range rows {
		rows[r] = make([]Tile, g.size)
		copy(rows[r], g.cells[r*g.size:(r+1)*g.size])
	}
	return rows
}

func (g *Grid) Equal(other *Grid) bool {
	if g.size != other.size {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

func (g *Grid) Clone() *Grid {
	c := &Grid{size: g.size, cells: make([]Tile, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// CopyTo overwrites dst with g, reusing dst's storage when the sizes match.
func (g *Grid) CopyTo(dst *Grid) {
	if len(dst.cells) != len(g.cells) {
		dst.cells = make([]Tile, len(g.cells))
	}
	dst.size = g.size
	copy(dst.cells, g.cells)
}

// Sum is the total of all tile values.
func (g *Grid) Sum() int {
	total := 0
	for _, v := range g.cells {
		total += int(v)
	}
	return total
}

func (g *Grid) MaxTile() Tile {
	var best Tile
	for _, v := range g.cells {
		if v > best {
			best = v
		}
	}
	return best
}

func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			v := g.Get(r, c)
			if v == Empty {
				sb.WriteString(fmt.Sprintf("%5s", "."))
			} else {
				sb.WriteString(fmt.Sprintf("%5d", v))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

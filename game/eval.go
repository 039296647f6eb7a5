package game

import (
	"fmt"
	"math"
	"math/bits"
)

// Features are the raw heuristic measures of a position.
type Features struct {
	Smoothness float64
	EmptyCount float64
	OutOfOrder float64
	Score      float64
}

func (f Features) vector() [4]float64 {
	return [4]float64{f.Smoothness, f.EmptyCount, f.OutOfOrder, f.Score}
}

// Measure computes every feature of the grid for the given score.
func Measure(g *Grid, score int) Features {
	return Features{
		Smoothness: Smoothness(g),
		EmptyCount: float64(EmptyCount(g)),
		OutOfOrder: float64(OutOfOrder(g)),
		Score:      float64(score),
	}
}

func log2(v Tile) int {
	return bits.TrailingZeros32(uint32(v))
}

// Smoothness sums the log2 gaps between consecutive non-empty tiles of every
// row and every column. Empty cells are skipped, not treated as zero.
func Smoothness(g *Grid) float64 {
	total := 0
	for _, swap := range []bool{false, true} {
		t := traversal{start: 0, stop: g.size, stride: 1, swap: swap}
		for line := 0; line < g.size; line++ {
			prev := -1
			for j := 0; j < g.size; j++ {
				v := g.cells[t.index(g.size, line, j)]
				if v == Empty {
					continue
				}
				e := log2(v)
				if prev >= 0 {
					total += abs(e - prev)
				}
				prev = e
			}
		}
	}
	return float64(total)
}

// OutOfOrder counts monotonicity violations: per axis, the inversions of all
// lines against ascending order and against descending order, keeping the
// smaller of the two; the result sums both axes.
func OutOfOrder(g *Grid) int {
	total := 0
	for _, swap := range []bool{false, true} {
		t := traversal{start: 0, stop: g.size, stride: 1, swap: swap}
		asc, desc := 0, 0
		for line := 0; line < g.size; line++ {
			for i := 0; i < g.size; i++ {
				a := g.cells[t.index(g.size, line, i)]
				if a == Empty {
					continue
				}
				for j := i + 1; j < g.size; j++ {
					b := g.cells[t.index(g.size, line, j)]
					if b == Empty {
						continue
					}
					if a > b {
						asc++
					} else if a < b {
						desc++
					}
				}
			}
		}
		total += min(asc, desc)
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Heuristic combines Features as Σ weight_k * feature_k ^ exponent_k over
// [smoothness, empty count, out of order, score].
type Heuristic struct {
	Weights   [4]float64
	Exponents [4]float64
}

var (
	DefaultWeights   = []float64{-0.1, 40, -1, 1}
	DefaultExponents = []float64{1, 0.5, 1, 1}
)

func NewHeuristic(weights, exponents []float64) (Heuristic, error) {
	if len(weights) != 4 || len(exponents) != 4 {
		return Heuristic{}, fmt.Errorf("%w: heuristic needs 4 weights and 4 exponents, got %d and %d",
			ErrConfiguration, len(weights), len(exponents))
	}
	var h Heuristic
	copy(h.Weights[:], weights)
	copy(h.Exponents[:], exponents)
	return h, nil
}

func DefaultHeuristic() Heuristic {
	h, err := NewHeuristic(DefaultWeights, DefaultExponents)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Heuristic) Combine(f Features) float64 {
	value := 0.0
	for k, m := range f.vector() {
		value += h.Weights[k] * pow(m, h.Exponents[k])
	}
	return value
}

func (h Heuristic) Evaluate(b *Board) float64 {
	return h.Combine(Measure(b.grid, b.score))
}

func pow(x, e float64) float64 {
	switch e {
	case 1:
		return x
	case 0.5:
		return math.Sqrt(x)
	}
	return math.Pow(x, e)
}

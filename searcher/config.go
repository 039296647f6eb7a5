package searcher

import (
	"encoding/json"
	"fmt"
	"os"

	"game2048/game"
	"game2048/meta"
)

// Config selects and parameterises a search policy. Fields that do not
// apply to the chosen policy are ignored.
type Config struct {
	Policy      string    `json:"policy"`
	Depth       int       `json:"depth"`
	Weights     []float64 `json:"weights,omitempty"`
	Exponents   []float64 `json:"exponents,omitempty"`
	MaxDepth    int       `json:"max_depth"`
	Trials      int       `json:"trials"`
	Aggregation string    `json:"aggregation"`
	Goroutines  int       `json:"goroutines"`
	Seed        uint64    `json:"seed"` // 0 seeds from the clock
}

func DefaultConfig() Config {
	return Config{
		Policy:      PolicyExpectimax,
		Depth:       meta.DEPTH,
		MaxDepth:    meta.MAX_DEPTH,
		Trials:      meta.TRIALS,
		Aggregation: meta.AGGREGATION,
		Goroutines:  meta.GO_ROUTINES,
	}
}

// LoadConfig reads a JSON config on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: failed to parse config %s: %v", game.ErrConfiguration, path, err)
	}
	return cfg, cfg.Validate()
}

// Heuristic returns the evaluator described by Weights and Exponents, each
// falling back to the default when omitted.
func (c Config) Heuristic() (game.Heuristic, error) {
	weights, exponents := c.Weights, c.Exponents
	if weights == nil {
		weights = game.DefaultWeights
	}
	if exponents == nil {
		exponents = game.DefaultExponents
	}
	return game.NewHeuristic(weights, exponents)
}

func (c Config) Validate() error {
	if c.Goroutines < 0 {
		return fmt.Errorf("%w: negative goroutines %d", game.ErrConfiguration, c.Goroutines)
	}
	switch c.Policy {
	case PolicyExpectimax:
		if c.Depth < 0 {
			return fmt.Errorf("%w: negative expectimax depth %d", game.ErrConfiguration, c.Depth)
		}
		_, err := c.Heuristic()
		return err
	case PolicyMonteCarlo:
		if _, err := ParseAggregation(c.Aggregation); err != nil {
			return err
		}
		if c.Trials <= 0 {
			return fmt.Errorf("%w: trials must be positive, got %d", game.ErrConfiguration, c.Trials)
		}
		if c.MaxDepth <= 0 {
			return fmt.Errorf("%w: max depth must be positive, got %d", game.ErrConfiguration, c.MaxDepth)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown policy %q", game.ErrConfiguration, c.Policy)
	}
}

// New builds the searcher described by cfg. Options are applied after
// the ones derived from cfg and take precedence.
func New(cfg Config, options ...Option) (Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithGoroutines(cfg.Goroutines)}
	if cfg.Seed != 0 {
		base = append(base, WithSeed(cfg.Seed))
	}
	options = append(base, options...)

	if cfg.Policy == PolicyMonteCarlo {
		mc, err := NewMonteCarlo(cfg.MaxDepth, cfg.Trials, cfg.Aggregation, options...)
		if err != nil {
			return nil, err
		}
		return mc, nil
	}

	h, err := cfg.Heuristic()
	if err != nil {
		return nil, err
	}
	em, err := NewExpectimax(cfg.Depth, append([]Option{WithHeuristic(h)}, options...)...)
	if err != nil {
		return nil, err
	}
	return em, nil
}

// ChooseMove runs a single search with a searcher built from cfg.
func ChooseMove(b *game.Board, cfg Config) (game.Direction, error) {
	s, err := New(cfg)
	if err != nil {
		return 0, err
	}
	d, _, err := s.FindMove(b)
	return d, err
}

package searcher

import (
	"time"

	"game2048/game"

	"golang.org/x/exp/rand"
)

type Option func(s *settings)

// settings shared by every search policy
type settings struct {
	goroutines int
	evaluate   game.Evaluate
	rng        *rand.Rand
	metrics    Collector
}

func defaultSettings() settings {
	return settings{
		goroutines: 1,
		evaluate:   game.DefaultHeuristic().Evaluate,
		metrics:    NewDummyCollector(),
	}
}

func applyOptions(options []Option) settings {
	s := defaultSettings()
	for _, option := range options {
		option(&s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return s
}

// WithGoroutines bounds the number of concurrent search workers.
func WithGoroutines(goroutines int) Option {
	return func(s *settings) {
		if goroutines > 0 {
			s.goroutines = goroutines
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(s *settings) {
		if evaluate != nil {
			s.evaluate = evaluate
		}
	}
}

func WithHeuristic(h game.Heuristic) Option {
	return func(s *settings) {
		s.evaluate = h.Evaluate
	}
}

// WithSeed makes rollouts reproducible.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *settings) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithMetrics() Option {
	return func(s *settings) {
		s.metrics = NewCollector()
	}
}

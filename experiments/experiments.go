package experiments

import (
	"context"
	"fmt"

	"game2048/engine"
	"game2048/experiments/metrics"
	"game2048/game"
	"game2048/meta"
	"game2048/searcher"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Settings of the boards every experiment game is played on.
type Settings struct {
	Size     int
	Prob2    float64
	MaxTurns int
}

func DefaultSettings() Settings {
	return Settings{Size: meta.GRID_SIZE, Prob2: meta.PROB_2, MaxTurns: meta.MAX_TURNS}
}

// DepthConfigs compares expectimax depths against Monte Carlo baselines.
func DepthConfigs() []metrics.AgentConfig {
	configs := []metrics.AgentConfig{}
	for i, depth := range []int{1, 2, 3} {
		cfg := searcher.DefaultConfig()
		cfg.Depth = depth
		configs = append(configs, metrics.AgentConfig{ID: i + 1, Config: cfg})
	}
	for _, aggregation := range []string{"sum", "min"} {
		cfg := searcher.DefaultConfig()
		cfg.Policy = searcher.PolicyMonteCarlo
		cfg.Aggregation = aggregation
		configs = append(configs, metrics.AgentConfig{ID: len(configs) + 1, Config: cfg})
	}
	return configs
}

// Run plays games per agent config and writes the configs, game records
// and move records under dir/name. Game i of a config is played on a board
// seeded with the config seed plus i, so every config faces the same
// sequence of starting boards when seeds agree.
func Run(ctx context.Context, name string, configs []metrics.AgentConfig, games int, dir string, settings Settings) (string, error) {
	if games <= 0 {
		return "", fmt.Errorf("%w: games must be positive, got %d", game.ErrConfiguration, games)
	}
	for _, config := range configs {
		if err := config.Validate(); err != nil {
			return "", fmt.Errorf("agent %d: %w", config.ID, err)
		}
	}

	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Msgf("starting %s experiment...", name)

	for ci, config := range configs {
		log.Info().Msgf("starting agent %d of %d with config=%+v...", ci+1, len(configs), config.Config)

		for i := 0; i < games; i++ {
			seed := config.Seed + uint64(i)
			gameMetric, moveMetrics, err := runGame(ctx, config.Config, seed, settings)
			if err != nil {
				return "", fmt.Errorf("agent %d game %d: %w", config.ID, i+1, err)
			}
			count++
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Agent:      config.ID,
				GameMetric: gameMetric,
			})
			for _, mm := range moveMetrics {
				moveRecords = append(moveRecords, metrics.MoveRecord{
					Game:       count,
					MoveMetric: mm,
				})
			}

			log.Info().Msgf("completed agent %d game %d of %d with score %d and max tile %d",
				config.ID, i+1, games, gameMetric.Score, gameMetric.MaxTile)
		}
	}

	log.Info().Msgf("completed %s experiment", name)

	writer, err := metrics.NewWriter(dir, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	if err := writer.WriteMoveParquet(moveRecords); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")

	return writer.Dir(), nil
}

// runGame plays a single game. seed drives the board spawns and, for Monte
// Carlo, the rollouts.
func runGame(ctx context.Context, config searcher.Config, seed uint64, settings Settings) (metrics.GameMetric, []metrics.MoveMetric, error) {
	board, err := game.NewBoard(settings.Size, settings.Prob2, rand.New(rand.NewSource(seed)))
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}

	config.Seed = seed
	s, err := searcher.New(config, searcher.WithMetrics())
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}

	e := engine.NewLocalEngine(board, s, engine.WithMaxTurns(settings.MaxTurns), engine.WithSeed(seed))
	return e.Run(ctx)
}

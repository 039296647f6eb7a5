package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"game2048/communication/client"
	"game2048/communication/server"
	"game2048/engine"
	"game2048/experiments"
	"game2048/experiments/metrics"
	"game2048/game"
	"game2048/meta"
	"game2048/searcher"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type options struct {
	mode       string
	configPath string
	config     searcher.Config
	size       int
	prob2      float64
	maxTurns   int
	games      int
	out        string
	addr       string
	remote     string
	logLevel   string
}

func parseFlags() options {
	var o options
	defaults := searcher.DefaultConfig()

	flag.StringVar(&o.mode, "mode", "play", "play, experiment or serve")
	flag.StringVar(&o.configPath, "config", "", "JSON searcher config; overrides the search flags")
	flag.StringVar(&o.config.Policy, "policy", defaults.Policy, "expectimax or montecarlo")
	flag.IntVar(&o.config.Depth, "depth", defaults.Depth, "Base expectimax depth")
	flag.IntVar(&o.config.Trials, "trials", defaults.Trials, "Monte Carlo rollouts per move")
	flag.IntVar(&o.config.MaxDepth, "max-depth", defaults.MaxDepth, "Monte Carlo rollout length in turns")
	flag.StringVar(&o.config.Aggregation, "aggregation", defaults.Aggregation, "Monte Carlo aggregation: sum or min")
	flag.IntVar(&o.config.Goroutines, "goroutines", defaults.Goroutines, "Search workers")
	flag.Uint64Var(&o.config.Seed, "seed", 0, "Random seed, 0 for the clock")
	flag.IntVar(&o.size, "size", meta.GRID_SIZE, "Grid side length")
	flag.Float64Var(&o.prob2, "prob2", meta.PROB_2, "Probability that a spawned tile is a 2")
	flag.IntVar(&o.maxTurns, "max-turns", meta.MAX_TURNS, "Stop a game after this many turns")
	flag.IntVar(&o.games, "games", 10, "Games per agent in experiment mode")
	flag.StringVar(&o.out, "out", "experiments", "Output directory in experiment mode")
	flag.StringVar(&o.addr, "addr", "", "Listen address of the move service; in play mode also streams the game")
	flag.StringVar(&o.remote, "remote", "", "Ask the move service at this URL instead of searching locally")
	flag.StringVar(&o.logLevel, "log-level", "info", "trace, debug, info, warn or error")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", o.logLevel)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if o.configPath != "" {
		if o.config, err = searcher.LoadConfig(o.configPath); err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch o.mode {
	case "play":
		err = play(ctx, o)
	case "experiment":
		err = experiment(ctx, o)
	case "serve":
		err = serve(ctx, o, server.NewHub())
	default:
		err = fmt.Errorf("unknown mode %q", o.mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msgf("%s failed", o.mode)
	}
}

func play(ctx context.Context, o options) error {
	seed := o.config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	board, err := game.NewBoard(o.size, o.prob2, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	var s searcher.Searcher
	if o.remote != "" {
		s = client.NewRemoteSearcher(o.remote, &o.config, time.Minute)
	} else if s, err = searcher.New(o.config, searcher.WithMetrics()); err != nil {
		return err
	}

	engineOptions := []engine.Option{engine.WithMaxTurns(o.maxTurns), engine.WithSeed(seed)}
	if o.addr != "" {
		hub := server.NewHub()
		engineOptions = append(engineOptions, engine.WithObserver(hub))
		go func() {
			if err := serve(ctx, o, hub); err != nil {
				log.Error().Err(err).Msg("spectator server stopped")
			}
		}()
	}

	gameMetric, _, err := engine.NewLocalEngine(board, s, engineOptions...).Run(ctx)
	fmt.Print(board)
	log.Info().
		Int("turns", gameMetric.TotalMoves).
		Int("score", gameMetric.Score).
		Uint32("max_tile", uint32(gameMetric.MaxTile)).
		Bool("won", gameMetric.Won).
		Dur("duration", gameMetric.Duration).
		Msg("game finished")
	return err
}

func experiment(ctx context.Context, o options) error {
	configs := experiments.DepthConfigs()
	if o.configPath != "" {
		configs = []metrics.AgentConfig{{ID: 1, Config: o.config}}
	}
	settings := experiments.Settings{Size: o.size, Prob2: o.prob2, MaxTurns: o.maxTurns}

	dir, err := experiments.Run(ctx, "depth", configs, o.games, o.out, settings)
	if err != nil {
		return err
	}
	log.Info().Msgf("stored records in %s", dir)
	return nil
}

func serve(ctx context.Context, o options, hub *server.Hub) error {
	addr := o.addr
	if addr == "" {
		addr = ":8080"
	}
	handler, err := server.New(o.config, o.prob2, hub)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Msgf("move service listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

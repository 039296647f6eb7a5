package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"game2048/communication/server"
	"game2048/engine"
	"game2048/game"
	"game2048/searcher"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func startService(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := searcher.DefaultConfig()
	cfg.Depth = 1
	cfg.Goroutines = 2
	cfg.Seed = 1
	handler, err := server.New(cfg, 0.9, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func board(t *testing.T, rows [][]game.Tile) *game.Board {
	t.Helper()
	grid, err := game.GridFromRows(rows)
	require.NoError(t, err)
	b, err := game.NewBoardFromGrid(grid, 0, 0.9, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return b
}

func TestRemoteSearcher(t *testing.T) {
	t.Run("returning the service decision", func(t *testing.T) {
		ts := startService(t)
		rs := NewRemoteSearcher(ts.URL+"/", nil, 5*time.Second)

		got, metric, err := rs.FindMove(board(t, [][]game.Tile{{2, 0}, {4, 0}}))

		require.NoError(t, err)
		require.Equal(t, game.Right, got)
		require.Equal(t, searcher.PolicyExpectimax, metric.Policy)
	})

	t.Run("finished game maps to no legal move", func(t *testing.T) {
		ts := startService(t)
		rs := NewRemoteSearcher(ts.URL, nil, 5*time.Second)

		_, _, err := rs.FindMove(board(t, [][]game.Tile{{2, 4}, {4, 2}}))

		require.ErrorIs(t, err, searcher.ErrNoLegalMove)
		require.ErrorIs(t, err, game.ErrPrecondition)
	})

	t.Run("rejected config maps to a configuration error", func(t *testing.T) {
		ts := startService(t)
		cfg := searcher.DefaultConfig()
		cfg.Policy = "greedy"
		rs := NewRemoteSearcher(ts.URL, &cfg, 5*time.Second)

		_, _, err := rs.FindMove(board(t, [][]game.Tile{{2, 0}, {4, 0}}))

		require.ErrorIs(t, err, game.ErrConfiguration)
	})

	t.Run("unexpected status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer ts.Close()
		rs := NewRemoteSearcher(ts.URL, nil, 5*time.Second)

		_, _, err := rs.FindMove(board(t, [][]game.Tile{{2, 0}, {4, 0}}))

		require.ErrorContains(t, err, "500")
		require.ErrorContains(t, err, "boom")
	})

	t.Run("driving a local engine", func(t *testing.T) {
		ts := startService(t)
		rs := NewRemoteSearcher(ts.URL, nil, 5*time.Second)
		b, err := game.NewBoard(4, 0.9, rand.New(rand.NewSource(9)))
		require.NoError(t, err)

		gameMetric, moveMetrics, err := engine.NewLocalEngine(b, rs, engine.WithMaxTurns(5)).Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 5, gameMetric.TotalMoves)
		require.Len(t, moveMetrics, 5)
	})
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"game2048/communication"
	"game2048/engine"
	"game2048/game"
	"game2048/searcher"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func testConfig() searcher.Config {
	cfg := searcher.DefaultConfig()
	cfg.Depth = 1
	cfg.Goroutines = 2
	cfg.Seed = 1
	return cfg
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	handler, err := New(testConfig(), 0.9, hub)
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func postMove(t *testing.T, ts *httptest.Server, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+communication.MovePath, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func emptyRows(n int) [][]game.Tile {
	rows := make([][]game.Tile, n)
	for i := range rows {
		rows[i] = make([]game.Tile, n)
	}
	return rows
}

func TestNew(t *testing.T) {
	t.Run("rejecting an invalid default config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Policy = "random"

		_, err := New(cfg, 0.9, nil)

		require.ErrorIs(t, err, game.ErrConfiguration)
	})

	t.Run("rejecting a default config above the limits", func(t *testing.T) {
		cfg := testConfig()
		cfg.Depth = MaxDepth + 1

		_, err := New(cfg, 0.9, nil)

		require.ErrorIs(t, err, game.ErrConfiguration)
	})
}

func TestPing(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + communication.PingPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "ok", got["status"])
}

func TestHandleMove(t *testing.T) {
	t.Run("returning the only legal move", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := postMove(t, ts, communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {4, 0}}})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got communication.MoveResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Equal(t, game.Right, got.Direction)
		require.Equal(t, searcher.PolicyExpectimax, got.Metrics.Policy)
	})

	t.Run("encoding the direction by name", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := postMove(t, ts, communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {4, 0}}})

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		require.JSONEq(t, `"right"`, string(raw["direction"]))
	})

	t.Run("using the request config", func(t *testing.T) {
		ts := newTestServer(t, nil)
		cfg := searcher.DefaultConfig()
		cfg.Policy = searcher.PolicyMonteCarlo
		cfg.Trials = 5
		cfg.MaxDepth = 5
		cfg.Seed = 3
		grid := [][]game.Tile{
			{2, 4, 8, 16},
			{0, 2, 0, 4},
			{4, 0, 0, 2},
			{0, 0, 2, 8},
		}

		resp := postMove(t, ts, communication.MoveRequest{Grid: grid, Score: 40, Config: &cfg})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got communication.MoveResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Equal(t, searcher.PolicyMonteCarlo, got.Metrics.Policy)
		g, err := game.GridFromRows(grid)
		require.NoError(t, err)
		require.True(t, game.Legal(g, got.Direction), "Should answer a legal move")
	})

	bad := map[string]any{
		"malformed json":     "not a request",
		"ragged grid":        communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {4}}},
		"non power of two":   communication.MoveRequest{Grid: [][]game.Tile{{3, 0}, {0, 0}}},
		"empty grid":         communication.MoveRequest{},
		"negative score":     communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Score: -4},
		"invalid aggregator": communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Config: &searcher.Config{Policy: searcher.PolicyMonteCarlo, Trials: 1, MaxDepth: 1, Aggregation: "avg"}},
		"tile above the cap": communication.MoveRequest{Grid: [][]game.Tile{{1 << 31, 1 << 31}, {0, 0}}},
		"oversized grid":     communication.MoveRequest{Grid: emptyRows(MaxGridSize + 1)},
		"deep expectimax":    communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Config: &searcher.Config{Policy: searcher.PolicyExpectimax, Depth: 12}},
		"too many trials":    communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Config: &searcher.Config{Policy: searcher.PolicyMonteCarlo, Trials: MaxTrials + 1, MaxDepth: 1, Aggregation: "sum"}},
		"long rollouts":      communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Config: &searcher.Config{Policy: searcher.PolicyMonteCarlo, Trials: 1, MaxDepth: MaxRolloutDepth + 1, Aggregation: "sum"}},
		"too many workers":   communication.MoveRequest{Grid: [][]game.Tile{{2, 0}, {0, 0}}, Config: &searcher.Config{Policy: searcher.PolicyExpectimax, Depth: 1, Goroutines: MaxGoroutines + 1}},
	}
	for name, payload := range bad {
		t.Run("rejecting "+name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			resp := postMove(t, ts, payload)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var got communication.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			require.NotEmpty(t, got.Error)
		})
	}

	t.Run("rejecting an oversized body", func(t *testing.T) {
		ts := newTestServer(t, nil)
		body := `{"grid":[[2,0],[0,0]],"pad":"` + strings.Repeat("x", MaxRequestBytes) + `"}`

		resp, err := http.Post(ts.URL+communication.MovePath, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("conflict on a finished game", func(t *testing.T) {
		ts := newTestServer(t, nil)

		resp := postMove(t, ts, communication.MoveRequest{Grid: [][]game.Tile{{2, 4}, {4, 2}}})

		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestSpectatorStream(t *testing.T) {
	t.Run("replaying the last update and streaming new ones", func(t *testing.T) {
		hub := NewHub()
		ts := newTestServer(t, hub)
		hub.Publish(engine.Update{Turn: 0, Grid: [][]game.Tile{{2, 0}, {0, 2}}, Score: 0})

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + communication.WSPath
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		readUpdate := func() engine.Update {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			var msg communication.Message
			require.NoError(t, conn.ReadJSON(&msg))
			require.Equal(t, "update", msg.Type)
			var u engine.Update
			require.NoError(t, json.Unmarshal(msg.Payload, &u))
			return u
		}

		first := readUpdate()
		require.Zero(t, first.Turn, "Should replay the latest update on connect")
		require.Nil(t, first.Move)

		require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)
		left := game.Left
		hub.Publish(engine.Update{Turn: 1, Move: &left, Grid: [][]game.Tile{{4, 0}, {2, 0}}, Score: 4})

		second := readUpdate()
		require.Equal(t, 1, second.Turn)
		require.Equal(t, game.Left, *second.Move)
		require.Equal(t, 4, second.Score)
	})
}

func TestHub(t *testing.T) {
	t.Run("dropping frames for a full client", func(t *testing.T) {
		hub := NewHub()
		client := &Client{hub: hub, send: make(chan []byte, 1)}
		hub.Register(client)

		hub.Publish(engine.Update{Turn: 1})
		hub.Publish(engine.Update{Turn: 2})

		require.Len(t, client.send, 1, "Publish should never block on a slow client")
	})

	t.Run("unregistering closes the send channel", func(t *testing.T) {
		hub := NewHub()
		client := &Client{hub: hub, send: make(chan []byte, 1)}
		hub.Register(client)

		hub.Unregister(client)
		hub.Unregister(client)

		_, ok := <-client.send
		require.False(t, ok)
		require.Zero(t, hub.Clients())
	})
}

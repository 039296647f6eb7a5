package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"game2048/communication"
	"game2048/game"
	"game2048/searcher"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Bounds on the work a single move request may ask for.
const (
	MaxRequestBytes = 1 << 20
	MaxGridSize     = 8
	MaxDepth        = 4 // Expectimax base depth, before adaptation
	MaxTrials       = 10000
	MaxRolloutDepth = 10000
	MaxGoroutines   = 64
)

// checkLimits rejects configs whose search would tie up the service.
func checkLimits(config searcher.Config) error {
	switch {
	case config.Policy == searcher.PolicyExpectimax && config.Depth > MaxDepth:
		return fmt.Errorf("%w: depth %d above the limit of %d", game.ErrConfiguration, config.Depth, MaxDepth)
	case config.Policy == searcher.PolicyMonteCarlo && config.Trials > MaxTrials:
		return fmt.Errorf("%w: %d trials above the limit of %d", game.ErrConfiguration, config.Trials, MaxTrials)
	case config.Policy == searcher.PolicyMonteCarlo && config.MaxDepth > MaxRolloutDepth:
		return fmt.Errorf("%w: max depth %d above the limit of %d", game.ErrConfiguration, config.MaxDepth, MaxRolloutDepth)
	case config.Goroutines > MaxGoroutines:
		return fmt.Errorf("%w: %d goroutines above the limit of %d", game.ErrConfiguration, config.Goroutines, MaxGoroutines)
	}
	return nil
}

// Server answers move requests and streams game updates to spectators.
type Server struct {
	config searcher.Config
	prob2  float64
	hub    *Hub
}

// New returns the router of the move service. config is used for requests
// that carry none; prob2 is the spawn distribution searches simulate.
func New(config searcher.Config, prob2 float64, hub *Hub) (http.Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := checkLimits(config); err != nil {
		return nil, err
	}
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{config: config, prob2: prob2, hub: hub}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get(communication.PingPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post(communication.MovePath, s.handleMove)
	r.Get(communication.WSPath, s.handleWS)
	return r, nil
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	var payload communication.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(payload.Grid) > MaxGridSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("grid size %d above the limit of %d", len(payload.Grid), MaxGridSize))
		return
	}

	config := s.config
	if payload.Config != nil {
		config = *payload.Config
		if err := checkLimits(config); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	b, err := payload.Board(s.prob2, rand.New(rand.NewSource(seed)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A searcher per request keeps concurrent requests independent.
	agent, err := searcher.New(config, searcher.WithMetrics())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	move, metric, err := agent.FindMove(b)
	switch {
	case errors.Is(err, searcher.ErrNoLegalMove):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("search failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, communication.MoveResponse{Direction: move, Metrics: metric})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: s.hub, send: make(chan []byte, sendBuffer)}
	s.hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writePump(conn, client.send); err != nil {
			log.Debug().Err(err).Msg("spectator disconnected")
		}
	}()

	// Spectators only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Unregister(client)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, communication.ErrorResponse{Error: message})
}

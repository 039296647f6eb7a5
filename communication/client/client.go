package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"game2048/communication"
	"game2048/game"
	"game2048/searcher"
)

// RemoteSearcher delegates the search to a move service.
type RemoteSearcher struct {
	serverURL  string
	config     *searcher.Config
	httpClient *http.Client
}

var _ searcher.Searcher = (*RemoteSearcher)(nil)

// NewRemoteSearcher returns a searcher that posts positions to serverURL.
// A nil config lets the service use its own.
func NewRemoteSearcher(serverURL string, config *searcher.Config, timeout time.Duration) *RemoteSearcher {
	return &RemoteSearcher{
		serverURL:  strings.TrimRight(serverURL, "/"),
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (rs *RemoteSearcher) FindMove(b *game.Board) (game.Direction, searcher.SearchMetric, error) {
	body, err := json.Marshal(communication.NewMoveRequest(b, rs.config))
	if err != nil {
		return 0, searcher.SearchMetric{}, fmt.Errorf("failed to encode move request: %w", err)
	}

	resp, err := rs.httpClient.Post(rs.serverURL+communication.MovePath, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, searcher.SearchMetric{}, fmt.Errorf("failed to request move: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, searcher.SearchMetric{}, statusError(resp)
	}

	var move communication.MoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&move); err != nil {
		return 0, searcher.SearchMetric{}, fmt.Errorf("failed to decode move: %w", err)
	}
	return move.Direction, move.Metrics, nil
}

func statusError(resp *http.Response) error {
	message := ""
	var payload communication.ErrorResponse
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		message = payload.Error
	} else {
		message = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", searcher.ErrNoLegalMove, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", game.ErrConfiguration, message)
	default:
		return fmt.Errorf("move service returned status %d: %s", resp.StatusCode, message)
	}
}

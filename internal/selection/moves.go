package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chessfront/internal/board"
	"chessfront/internal/logging"
)

// MoveSource computes the destinations worth highlighting for a selection.
type MoveSource interface {
	ValidMoves(ctx context.Context, from board.Position) []board.Position
}

// NoMoves is the default source; it never suggests a destination.
type NoMoves struct{}

// ValidMoves returns nil.
func (NoMoves) ValidMoves(context.Context, board.Position) []board.Position { return nil }

// RemoteMoves asks the authority's GET /moves endpoint. Faults are logged and
// yield no highlights.
type RemoteMoves struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// ValidMoves queries the authority for destinations from.
func (r RemoteMoves) ValidMoves(ctx context.Context, from board.Position) []board.Position {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	moves, err := r.fetch(ctx, from)
	if err != nil {
		logging.Errorf("valid moves %s: %v", from, err)
		return nil
	}
	return moves
}

func (r RemoteMoves) fetch(ctx context.Context, from board.Position) ([]board.Position, error) {
	q := url.Values{}
	q.Set("row", strconv.Itoa(from.Row))
	q.Set("col", strconv.Itoa(from.Col))
	u := strings.TrimRight(r.BaseURL, "/") + "/moves?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var body board.MovesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return body.Moves, nil
}

// Package submit sends move attempts to the authority and routes the verdict
// back to the board view.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chessfront/internal/board"
	"chessfront/internal/logging"
	"chessfront/internal/view"
)

var (
	// ErrStatus is returned for a non-2xx answer from the authority.
	ErrStatus = errors.New("unexpected status")
	// ErrMalformed is returned when the answer is not a move result.
	ErrMalformed = errors.New("malformed move result")
)

// Config holds the transport settings.
type Config struct {
	// BaseURL of the authority, e.g. http://localhost:8080.
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Timeout bounds one request. Zero leaves it to the transport.
	Timeout time.Duration
}

// Applier writes a confirmed move into the view.
type Applier interface {
	ApplyMove(start, end board.Position) error
}

// Submitter performs fire-and-forget move submissions. Completions are handed
// to post so the view is only touched from the goroutine that owns it.
type Submitter struct {
	cfg    Config
	view   Applier
	notify view.Notifier
	post   func(func())

	wg       sync.WaitGroup
	inflight atomic.Int64
}

// New creates a Submitter. A nil post runs completions on the submitting
// goroutine.
func New(cfg Config, v Applier, n view.Notifier, post func(func())) *Submitter {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if n == nil {
		n = view.LogNotifier{}
	}
	if post == nil {
		post = func(f func()) { f() }
	}
	return &Submitter{cfg: cfg, view: v, notify: n, post: post}
}

// Submit starts a move attempt and returns immediately. There is no retry
// and no way to cancel it once sent.
func (s *Submitter) Submit(start, end board.Position) {
	s.wg.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Add(-1)
		s.run(start, end)
	}()
}

// InFlight reports whether any submission is still waiting for a verdict.
func (s *Submitter) InFlight() bool { return s.inflight.Load() > 0 }

// Wait blocks until every started submission has completed.
func (s *Submitter) Wait() { s.wg.Wait() }

func (s *Submitter) run(start, end board.Position) {
	ctx := context.Background()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	res, err := s.Do(ctx, board.MoveRequest{Start: start, End: end})
	if err != nil {
		logging.Errorf("move %s -> %s: %v", start, end, err)
		return
	}
	if !res.Success {
		logging.Debugf("move %s -> %s rejected: %s", start, end, res.Message)
		s.post(func() { s.notify.NotifyFailure(res.Message) })
		return
	}
	s.post(func() {
		if err := s.view.ApplyMove(start, end); err != nil {
			logging.Errorf("apply %s -> %s: %v", start, end, err)
		}
	})
}

// wireResult distinguishes a missing success field from false.
type wireResult struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Do sends one move request and decodes the verdict.
func (s *Submitter) Do(ctx context.Context, mr board.MoveRequest) (board.MoveResult, error) {
	body, err := json.Marshal(mr)
	if err != nil {
		return board.MoveResult{}, err
	}
	u := strings.TrimRight(s.cfg.BaseURL, "/") + "/move"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return board.MoveResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		return board.MoveResult{}, fmt.Errorf("post %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return board.MoveResult{}, fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
	}
	var wr wireResult
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return board.MoveResult{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wr.Success == nil {
		return board.MoveResult{}, fmt.Errorf("%w: missing success", ErrMalformed)
	}
	return board.MoveResult{Success: *wr.Success, Message: wr.Message}, nil
}

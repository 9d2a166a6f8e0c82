package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"chessfront/internal/board"
	"chessfront/internal/selection"
	"chessfront/internal/submit"
	"chessfront/internal/view"
)

func boardHTML(pieces map[board.Position]string) string {
	var sb strings.Builder
	sb.WriteString(`<table id="board">`)
	for r := 0; r < board.Size; r++ {
		sb.WriteString("<tr>")
		for c := 0; c < board.Size; c++ {
			fmt.Fprintf(&sb, `<td class="chess-cell" data-row="%d" data-col="%d">%s</td>`, r, c, pieces[board.Position{Row: r, Col: c}])
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

// harness wires the real view, machine, submitter and dispatcher on a
// running loop against the given authority.
type harness struct {
	ctx     context.Context
	loop    *Loop
	board   *view.Board
	machine *selection.Machine
	sub     *submit.Submitter
	disp    *Dispatcher

	mu      sync.Mutex
	notices []string
}

func newHarness(t *testing.T, authorityURL string, pieces map[board.Position]string) *harness {
	t.Helper()
	b, err := view.ParseString(boardHTML(pieces))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return harnessFor(t, authorityURL, b)
}

func harnessFor(t *testing.T, authorityURL string, b *view.Board) *harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	h := &harness{ctx: ctx, loop: NewLoop(16), board: b}
	notifier := view.NotifierFunc(func(m string) {
		h.mu.Lock()
		h.notices = append(h.notices, m)
		h.mu.Unlock()
	})
	h.sub = submit.New(submit.Config{BaseURL: authorityURL}, b, notifier, h.loop.Post)
	h.machine = selection.New(h.sub)
	h.disp = New(b, h.machine, h.loop)
	if err := h.disp.Bind(b.Cells()); err != nil {
		t.Fatalf("bind: %v", err)
	}
	go func() { _ = h.loop.Run(ctx) }()
	return h
}

func (h *harness) click(t *testing.T, p board.Position) {
	t.Helper()
	cell, err := h.board.Cell(p)
	if err != nil {
		t.Fatalf("cell %s: %v", p, err)
	}
	if !h.disp.Activate(h.ctx, cell) {
		t.Fatalf("cell %s not bound", p)
	}
	if !h.loop.Sync(h.ctx) {
		t.Fatalf("loop stopped")
	}
}

// settle waits for all submissions and the completions they posted.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.sub.Wait()
	if !h.loop.Sync(h.ctx) {
		t.Fatalf("loop stopped")
	}
}

func (h *harness) content(t *testing.T, p board.Position) string {
	t.Helper()
	s, err := h.board.Content(p)
	if err != nil {
		t.Fatalf("content %s: %v", p, err)
	}
	return s
}

// gatedAuthority records each request and answers only once released.
type gatedAuthority struct {
	srv      *httptest.Server
	requests chan board.MoveRequest
	release  chan struct{}
	body     string
}

func newGatedAuthority(t *testing.T, body string) *gatedAuthority {
	t.Helper()
	a := &gatedAuthority{requests: make(chan board.MoveRequest, 8), release: make(chan struct{}), body: body}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req board.MoveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		a.requests <- req
		<-a.release
		_, _ = io.WriteString(w, a.body)
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func TestBindOnce(t *testing.T) {
	b, _ := view.ParseString(boardHTML(nil))
	d := New(b, selection.New(selection.SubmitterFunc(func(_, _ board.Position) {})), NewLoop(1))
	if err := d.Bind(b.Cells()); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := d.Bind(b.Cells()); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}
}

func TestUnboundCellIgnored(t *testing.T) {
	b, _ := view.ParseString(boardHTML(nil))
	d := New(b, selection.New(selection.SubmitterFunc(func(_, _ board.Position) {})), NewLoop(1))
	_ = d.Bind(b.Cells())
	late := &html.Node{Type: html.ElementNode, Data: "td"}
	if d.Activate(context.Background(), late) {
		t.Fatalf("cells added after Bind must not be handled")
	}
}

// Click (1,0) then (3,0) on an 8x8 board; the state clears before the
// authority answers, the move lands once it does, and (2,0) starts over.
func TestMoveScenario(t *testing.T) {
	auth := newGatedAuthority(t, `{"success":true}`)
	from, to := board.Position{Row: 1, Col: 0}, board.Position{Row: 3, Col: 0}
	h := newHarness(t, auth.srv.URL, map[board.Position]string{from: `<span class="piece">♟</span>`})
	original := h.content(t, from)

	h.click(t, from)
	if p, ok := h.machine.State().Selected(); !ok || p != from {
		t.Fatalf("expected Selected%s, got %s", from, h.machine.State())
	}
	h.click(t, to)

	select {
	case req := <-auth.requests:
		if req.Start != from || req.End != to {
			t.Fatalf("unexpected request %+v", req)
		}
	case <-h.ctx.Done():
		t.Fatalf("authority never saw the move")
	}
	if !h.machine.State().Empty() {
		t.Fatalf("state should be Empty while the move is in flight, got %s", h.machine.State())
	}
	if got := h.content(t, to); got != "" {
		t.Fatalf("destination changed before the verdict: %q", got)
	}

	close(auth.release)
	h.settle(t)

	if got := h.content(t, to); got != original {
		t.Fatalf("destination: expected %q got %q", original, got)
	}
	if got := h.content(t, from); got != "" {
		t.Fatalf("source should be empty, got %q", got)
	}

	h.click(t, board.Position{Row: 2, Col: 0})
	if p, ok := h.machine.State().Selected(); !ok || p != (board.Position{Row: 2, Col: 0}) {
		t.Fatalf("expected a fresh selection at (2,0), got %s", h.machine.State())
	}
	select {
	case req := <-auth.requests:
		t.Fatalf("third click must not submit, got %+v", req)
	default:
	}
}

func TestRejectionLeavesBoard(t *testing.T) {
	auth := newGatedAuthority(t, `{"success":false,"message":"illegal move"}`)
	close(auth.release)
	from, to := board.Position{Row: 0, Col: 1}, board.Position{Row: 4, Col: 4}
	h := newHarness(t, auth.srv.URL, map[board.Position]string{from: "♞"})

	h.click(t, from)
	h.click(t, to)
	h.settle(t)

	if h.content(t, from) != "♞" || h.content(t, to) != "" {
		t.Fatalf("rejected move changed the board: from=%q to=%q", h.content(t, from), h.content(t, to))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notices) != 1 || h.notices[0] != "illegal move" {
		t.Fatalf("expected one notice \"illegal move\", got %q", h.notices)
	}
}

func TestTransportFaultIsolated(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	from, to := board.Position{Row: 6, Col: 4}, board.Position{Row: 4, Col: 4}
	h := newHarness(t, url, map[board.Position]string{from: "♙"})
	h.click(t, from)
	h.click(t, to)
	h.settle(t)

	if h.content(t, from) != "♙" || h.content(t, to) != "" {
		t.Fatalf("fault changed the board")
	}
	if !h.machine.State().Empty() {
		t.Fatalf("expected Empty after fault, got %s", h.machine.State())
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notices) != 0 {
		t.Fatalf("transport faults are not shown to the player, got %q", h.notices)
	}
}

// Two moves can be in flight at once and land in either order.
func TestOverlappingMovesApplyOutOfOrder(t *testing.T) {
	gates := map[int]chan struct{}{1: make(chan struct{}), 6: make(chan struct{})}
	seen := make(chan int, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req board.MoveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen <- req.Start.Row
		<-gates[req.Start.Row]
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	pieces := map[board.Position]string{{Row: 1, Col: 0}: "♟", {Row: 6, Col: 7}: "♙"}
	h := newHarness(t, srv.URL, pieces)
	h.click(t, board.Position{Row: 1, Col: 0})
	h.click(t, board.Position{Row: 3, Col: 0})
	h.click(t, board.Position{Row: 6, Col: 7})
	h.click(t, board.Position{Row: 4, Col: 7})
	<-seen
	<-seen

	close(gates[6])
	close(gates[1])
	h.settle(t)

	if h.content(t, board.Position{Row: 3, Col: 0}) != "♟" || h.content(t, board.Position{Row: 4, Col: 7}) != "♙" {
		t.Fatalf("both moves should have applied")
	}
}

package game

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"chessfront/internal/board"
)

func pos(r, c int) board.Position { return board.Position{Row: r, Col: c} }

type memRecorder struct {
	mu    sync.Mutex
	moves []string
}

func (m *memRecorder) RecordMove(_ context.Context, _ uuid.UUID, number int, uci, color string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, uci+"/"+color)
	return nil
}

func TestSquareMapping(t *testing.T) {
	if got := Square(pos(7, 0)).String(); got != "a1" {
		t.Fatalf("(7,0) should be a1, got %s", got)
	}
	if got := Square(pos(0, 7)).String(); got != "h8" {
		t.Fatalf("(0,7) should be h8, got %s", got)
	}
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			if back := PositionOf(Square(pos(r, c))); back != pos(r, c) {
				t.Fatalf("round trip (%d,%d) gave %s", r, c, back)
			}
		}
	}
}

func TestInitialLayout(t *testing.T) {
	st := New(nil).State()
	if st.Cells[0][0] != "♜" || st.Cells[0][4] != "♚" || st.Cells[1][3] != "♟" {
		t.Fatalf("unexpected black back ranks: %v %v", st.Cells[0], st.Cells[1])
	}
	if st.Cells[7][3] != "♕" || st.Cells[6][0] != "♙" {
		t.Fatalf("unexpected white back ranks: %v %v", st.Cells[7], st.Cells[6])
	}
	if st.Cells[3][3] != "" {
		t.Fatalf("middle of the board should be empty")
	}
	if st.Turn != "White" {
		t.Fatalf("white moves first, got %s", st.Turn)
	}
}

func TestMoveValid(t *testing.T) {
	rec := &memRecorder{}
	g := New(rec)
	res := g.Move(context.Background(), pos(6, 4), pos(4, 4)) // e2e4
	if !res.Success || res.Message != MsgAccepted {
		t.Fatalf("expected e2e4 to be accepted, got %+v", res)
	}
	st := g.State()
	if st.Cells[4][4] != "♙" || st.Cells[6][4] != "" {
		t.Fatalf("board not updated: %v", st.Cells)
	}
	if len(st.UCI) != 1 || st.UCI[0] != "e2e4" {
		t.Fatalf("unexpected move list %v", st.UCI)
	}
	if len(rec.moves) != 1 || rec.moves[0] != "e2e4/White" {
		t.Fatalf("expected move to be recorded, got %v", rec.moves)
	}
}

func TestMoveRejections(t *testing.T) {
	cases := []struct {
		name       string
		start, end board.Position
		want       string
	}{
		{"empty square", pos(4, 4), pos(3, 4), MsgNoPiece},
		{"wrong side", pos(1, 4), pos(3, 4), MsgNotYourTurn},
		{"illegal pawn jump", pos(6, 4), pos(3, 4), MsgInvalid},
		{"move to self", pos(6, 4), pos(6, 4), MsgInvalid},
		{"off board", pos(6, 4), pos(8, 4), MsgOffBoard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(nil)
			before := g.State()
			res := g.Move(context.Background(), tc.start, tc.end)
			if res.Success || res.Message != tc.want {
				t.Fatalf("expected rejection %q, got %+v", tc.want, res)
			}
			if after := g.State(); after.FEN != before.FEN {
				t.Fatalf("rejected move changed the position")
			}
		})
	}
}

func TestTurnsAlternate(t *testing.T) {
	g := New(nil)
	ctx := context.Background()
	if !g.Move(ctx, pos(6, 4), pos(4, 4)).Success {
		t.Fatalf("white e2e4 failed")
	}
	if res := g.Move(ctx, pos(6, 3), pos(4, 3)); res.Success || res.Message != MsgNotYourTurn {
		t.Fatalf("white cannot move twice, got %+v", res)
	}
	if !g.Move(ctx, pos(1, 4), pos(3, 4)).Success {
		t.Fatalf("black e7e5 failed")
	}
}

// Moves whose effect is more than start to end are refused so a client that
// only relocates cell content stays in step with the authority.
func TestMoveRejectsMultiSquareEffects(t *testing.T) {
	cases := []struct {
		name       string
		setup      []string
		start, end board.Position
	}{
		{"king side castle", []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5"}, pos(7, 4), pos(7, 6)},
		{"queen side castle", []string{"d2d4", "d7d5", "b1c3", "b8c6", "c1f4", "c8f5", "d1d2", "d8d7"}, pos(7, 4), pos(7, 2)},
		{"en passant", []string{"e2e4", "a7a6", "e4e5", "d7d5"}, pos(3, 4), pos(2, 3)},
		// a7xb8 with the knight still on b8
		{"promotion", []string{"a2a4", "b7b5", "a4b5", "a7a6", "b5a6", "c8b7", "a6a7", "b7c6"}, pos(1, 0), pos(0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(nil)
			if err := g.Replay(tc.setup); err != nil {
				t.Fatalf("replay: %v", err)
			}
			before := g.State()
			res := g.Move(context.Background(), tc.start, tc.end)
			if res.Success || res.Message != MsgInvalid {
				t.Fatalf("expected %q, got %+v", MsgInvalid, res)
			}
			if after := g.State(); after.FEN != before.FEN {
				t.Fatalf("rejected move changed the position")
			}
			for _, p := range g.ValidMoves(tc.start) {
				if p == tc.end {
					t.Fatalf("%s offered as a valid destination", tc.end)
				}
			}
		})
	}
}

func TestKingStillMovesOneSquareWhenCastlingIsOpen(t *testing.T) {
	g := New(nil)
	if err := g.Replay([]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5"}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res := g.Move(context.Background(), pos(7, 4), pos(7, 5)); !res.Success {
		t.Fatalf("Ke1-f1 should be accepted, got %+v", res)
	}
	if st := g.State(); st.Cells[7][5] != "♔" || st.Cells[7][7] != "♖" {
		t.Fatalf("unexpected back rank %v", st.Cells[7])
	}
}

func TestValidMoves(t *testing.T) {
	g := New(nil)
	got := g.ValidMoves(pos(6, 4))
	want := map[board.Position]bool{pos(5, 4): true, pos(4, 4): true}
	if len(got) != len(want) {
		t.Fatalf("expected %d moves, got %v", len(want), got)
	}
	for _, p := range got {
		if !want[p] {
			t.Fatalf("unexpected destination %s", p)
		}
	}
	if moves := g.ValidMoves(pos(1, 4)); len(moves) != 0 {
		t.Fatalf("black cannot move on white's turn, got %v", moves)
	}
	if moves := g.ValidMoves(pos(4, 4)); len(moves) != 0 {
		t.Fatalf("empty square has no moves, got %v", moves)
	}
}

func TestReplayRejectsIllegal(t *testing.T) {
	g := New(nil)
	if err := g.Replay([]string{"e2e4", "e2e4"}); err == nil {
		t.Fatalf("expected replay error")
	}
}

func TestResetNewID(t *testing.T) {
	g := New(nil)
	id := g.ID
	g.Move(context.Background(), pos(6, 4), pos(4, 4))
	g.Reset()
	st := g.State()
	if g.ID == id {
		t.Fatalf("reset should assign a new id")
	}
	if len(st.UCI) != 0 || st.Cells[6][4] != "♙" {
		t.Fatalf("reset did not restore the start position")
	}
}

func TestGameOverRejectsMoves(t *testing.T) {
	g := New(nil)
	// fool's mate
	if err := g.Replay([]string{"f2f3", "e7e5", "g2g4", "d8h4"}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res := g.Move(context.Background(), pos(6, 0), pos(5, 0)); res.Success || res.Message != MsgGameOver {
		t.Fatalf("expected game over, got %+v", res)
	}
	if st := g.State(); st.Status == "" {
		t.Fatalf("expected a status once the game ended")
	}
}

func TestResumeKeepsID(t *testing.T) {
	g := New(nil)
	id := uuid.New()
	if err := g.Resume(id, []string{"e2e4", "e7e5"}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	st := g.State()
	if st.ID != id.String() || len(st.UCI) != 2 || st.Turn != "White" {
		t.Fatalf("unexpected resumed state %+v", st)
	}
}

package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"chessfront/internal/board"
	"chessfront/internal/logging"
)

// New creates a game in the starting position. rec may be nil.
func New(rec Recorder) *Game {
	return &Game{
		ID:       uuid.New(),
		g:        newChess(),
		LastSeen: time.Now(),
		recorder: rec,
	}
}

func newChess() *chess.Game {
	return chess.NewGame(chess.UseNotation(chess.UCINotation{}))
}

// Square converts a board position to a chess square. Row 0 is black's back
// rank and column 0 is the a-file.
func Square(p board.Position) chess.Square {
	return chess.Square((board.Size-1-p.Row)*board.Size + p.Col)
}

// PositionOf is the inverse of Square.
func PositionOf(sq chess.Square) board.Position {
	return board.Position{Row: board.Size - 1 - int(sq)/board.Size, Col: int(sq) % board.Size}
}

// Touch updates the last seen timestamp for a game
func (g *Game) Touch() {
	g.Mu.Lock()
	g.LastSeen = time.Now()
	g.Mu.Unlock()
}

// Move adjudicates a move request. A rejected move leaves the game unchanged.
func (g *Game) Move(ctx context.Context, start, end board.Position) board.MoveResult {
	if !start.Valid() || !end.Valid() {
		return board.MoveResult{Message: MsgOffBoard}
	}

	g.Mu.Lock()
	if g.g.Outcome() != chess.NoOutcome {
		g.Mu.Unlock()
		return board.MoveResult{Message: MsgGameOver}
	}
	pos := g.g.Position()
	piece := pos.Board().Piece(Square(start))
	if piece == chess.NoPiece {
		g.Mu.Unlock()
		return board.MoveResult{Message: MsgNoPiece}
	}
	if piece.Color() != pos.Turn() {
		g.Mu.Unlock()
		return board.MoveResult{Message: MsgNotYourTurn}
	}
	m := g.findMoveLocked(Square(start), Square(end))
	if m == nil {
		g.Mu.Unlock()
		return board.MoveResult{Message: MsgInvalid}
	}
	uci := chess.UCINotation{}.Encode(pos, m)
	if err := g.g.Move(m); err != nil {
		g.Mu.Unlock()
		return board.MoveResult{Message: err.Error()}
	}
	number := len(g.g.Moves())
	color := piece.Color().Name()
	id := g.ID
	g.LastSeen = time.Now()
	g.Mu.Unlock()

	logging.Debugf("game %s: %d. %s", id, number, uci)
	if g.recorder != nil {
		if err := g.recorder.RecordMove(ctx, id, number, uci, color); err != nil {
			logging.Errorf("record move %s: %v", uci, err)
		}
	}
	return board.MoveResult{Success: true, Message: MsgAccepted}
}

// findMoveLocked picks the legal move between two squares. Moves that touch
// a third square or replace the piece are never returned, since a client
// only relocates the content of start to end.
func (g *Game) findMoveLocked(s1, s2 chess.Square) *chess.Move {
	for _, m := range g.g.ValidMoves() {
		if m.S1() == s1 && m.S2() == s2 && plainMove(m) {
			return m
		}
	}
	return nil
}

// plainMove reports whether m only moves one piece from S1 to S2, capturing
// whatever stood on S2.
func plainMove(m *chess.Move) bool {
	if m.Promo() != chess.NoPieceType {
		return false
	}
	return !m.HasTag(chess.KingSideCastle) && !m.HasTag(chess.QueenSideCastle) && !m.HasTag(chess.EnPassant)
}

// ValidMoves lists the destinations Move would accept for the piece standing
// on from. It is empty for an empty square or a piece whose side is not to move.
func (g *Game) ValidMoves(from board.Position) []board.Position {
	if !from.Valid() {
		return nil
	}
	sq := Square(from)
	g.Mu.Lock()
	defer g.Mu.Unlock()
	seen := make(map[chess.Square]bool)
	var out []board.Position
	for _, m := range g.g.ValidMoves() {
		if m.S1() != sq || seen[m.S2()] || !plainMove(m) {
			continue
		}
		seen[m.S2()] = true
		out = append(out, PositionOf(m.S2()))
	}
	return out
}

// MovesUCI returns the list of moves in UCI notation
func (g *Game) MovesUCI() []string {
	ms := g.g.Moves()
	out := make([]string, 0, len(ms))
	tmp := newChess()
	uci := chess.UCINotation{}
	for _, m := range ms {
		s := uci.Encode(tmp.Position(), m)
		out = append(out, s)
		if mv2, err := uci.Decode(tmp.Position(), s); err == nil {
			_ = tmp.Move(mv2)
		}
	}
	return out
}

// Replay applies previously recorded UCI moves to a fresh game.
func (g *Game) Replay(moves []string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.g = newChess()
	for i, s := range moves {
		if err := g.g.MoveStr(s); err != nil {
			return fmt.Errorf("replay move %d (%s): %w", i+1, s, err)
		}
	}
	return nil
}

// Resume continues a persisted game under its original id.
func (g *Game) Resume(id uuid.UUID, moves []string) error {
	if err := g.Replay(moves); err != nil {
		return err
	}
	g.Mu.Lock()
	g.ID = id
	g.Mu.Unlock()
	return nil
}

// StateLocked returns the current game state (must be called with lock held)
func (g *Game) StateLocked() State {
	pos := g.g.Position()
	st := State{
		ID:   g.ID.String(),
		FEN:  pos.String(),
		Turn: pos.Turn().Name(),
		UCI:  g.MovesUCI(),
	}
	if g.g.Outcome() != chess.NoOutcome {
		st.Status = fmt.Sprintf("%s by %s", g.g.Outcome().String(), g.g.Method().String())
	}
	b := pos.Board()
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			st.Cells[r][c] = Glyph(b.Piece(Square(board.Position{Row: r, Col: c})))
		}
	}
	return st
}

// State locks the game and returns a snapshot.
func (g *Game) State() State {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.StateLocked()
}

// Reset resets the game to the starting position under a new id.
func (g *Game) Reset() {
	g.Mu.Lock()
	g.g = newChess()
	g.ID = uuid.New()
	g.LastSeen = time.Now()
	logging.Debugf("game reset - id: %s, FEN: %s", g.ID, g.g.Position().String())
	g.Mu.Unlock()
}

// Glyph returns the figurine for a piece, or "" for an empty square.
func Glyph(p chess.Piece) string {
	if p == chess.NoPiece {
		return ""
	}
	white := map[chess.PieceType]string{
		chess.King: "♔", chess.Queen: "♕", chess.Rook: "♖",
		chess.Bishop: "♗", chess.Knight: "♘", chess.Pawn: "♙",
	}
	black := map[chess.PieceType]string{
		chess.King: "♚", chess.Queen: "♛", chess.Rook: "♜",
		chess.Bishop: "♝", chess.Knight: "♞", chess.Pawn: "♟",
	}
	if p.Color() == chess.White {
		return white[p.Type()]
	}
	return black[p.Type()]
}

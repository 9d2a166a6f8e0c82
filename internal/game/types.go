package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"chessfront/internal/board"
)

// Messages returned to the client in MoveResult.Message.
const (
	MsgAccepted    = "move accepted"
	MsgNoPiece     = "no piece at start square"
	MsgInvalid     = "invalid move"
	MsgNotYourTurn = "not your turn"
	MsgOffBoard    = "position off the board"
	MsgGameOver    = "game is over"
)

// Recorder persists accepted moves. storage.Store satisfies it.
type Recorder interface {
	RecordMove(ctx context.Context, gameID uuid.UUID, number int, uci, color string) error
}

// Game is the single authoritative game served by this process.
type Game struct {
	Mu       sync.Mutex
	ID       uuid.UUID
	g        *chess.Game
	LastSeen time.Time
	recorder Recorder
}

// State is a snapshot of the game for rendering.
type State struct {
	ID     string                         `json:"id"`
	Cells  [board.Size][board.Size]string `json:"cells"`
	FEN    string                         `json:"fen"`
	Turn   string                         `json:"turn"`
	Status string                         `json:"status"`
	UCI    []string                       `json:"uci"`
}

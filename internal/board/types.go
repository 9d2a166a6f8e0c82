package board

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the number of rows and columns on the board.
const Size = 8

// ErrBadPosition is returned when a wire position cannot be decoded.
var ErrBadPosition = errors.New("bad position")

// Position identifies a single cell by row and column.
type Position struct {
	Row int
	Col int
}

// Valid reports whether the position lies on a Size x Size board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// MarshalJSON encodes the position as [row, col].
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

// UnmarshalJSON decodes a [row, col] pair.
func (p *Position) UnmarshalJSON(data []byte) error {
	var rc []int
	if err := json.Unmarshal(data, &rc); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	if len(rc) != 2 || rc[0] < 0 || rc[1] < 0 {
		return fmt.Errorf("%w: %s", ErrBadPosition, data)
	}
	p.Row, p.Col = rc[0], rc[1]
	return nil
}

// MoveRequest is the body of a move submission.
type MoveRequest struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// MoveResult is the authority's verdict on a move request.
type MoveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MovesResponse lists the destinations reachable from one cell.
type MovesResponse struct {
	From  Position   `json:"from"`
	Moves []Position `json:"moves"`
}

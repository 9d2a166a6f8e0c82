package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chessfront/internal/board"
	"chessfront/internal/game"
	"chessfront/internal/logging"
	"chessfront/internal/storage"
	"chessfront/internal/templates"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Game  *game.Game
	Store *storage.Store
}

// NewHandler creates a new handler instance
func NewHandler(g *game.Game, store *storage.Store) *Handler {
	return &Handler{Game: g, Store: store}
}

// HandlePage serves the board page
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	h.Game.Touch()
	templates.WriteBoardHTML(w, h.Game.State())
}

// HandleState returns the current game state as JSON
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Game.State())
}

// HandleMove adjudicates a move request
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var m board.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		WriteJSON(w, http.StatusBadRequest, board.MoveResult{Message: "bad json"})
		return
	}

	res := h.Game.Move(r.Context(), m.Start, m.End)
	if res.Success {
		h.Game.Mu.Lock()
		st := h.Game.StateLocked()
		id := h.Game.ID
		h.Game.Mu.Unlock()
		if st.Status != "" {
			if err := h.Store.CompleteGame(r.Context(), id, st.Status, st.FEN, time.Now()); err != nil {
				logging.Errorf("complete game %s: %v", id, err)
			}
		}
	} else {
		logging.Debugf("rejected %s -> %s: %s", m.Start, m.End, res.Message)
	}
	WriteJSON(w, http.StatusOK, res)
}

// HandleMoves lists the destinations reachable from ?row=&col=
func (h *Handler) HandleMoves(w http.ResponseWriter, r *http.Request) {
	row, errR := strconv.Atoi(r.URL.Query().Get("row"))
	col, errC := strconv.Atoi(r.URL.Query().Get("col"))
	from := board.Position{Row: row, Col: col}
	if errR != nil || errC != nil || !from.Valid() {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "bad position"})
		return
	}
	moves := h.Game.ValidMoves(from)
	if moves == nil {
		moves = []board.Position{}
	}
	WriteJSON(w, http.StatusOK, board.MovesResponse{From: from, Moves: moves})
}

// HandleReset resets the game to the starting position
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.Game.Mu.Lock()
	old := h.Game.ID
	h.Game.Mu.Unlock()

	h.Game.Reset()

	h.Game.Mu.Lock()
	st := h.Game.StateLocked()
	id := h.Game.ID
	h.Game.Mu.Unlock()

	now := time.Now()
	if err := h.Store.Abandon(r.Context(), old, now); err != nil {
		logging.Errorf("abandon game %s: %v", old, err)
	}
	if err := h.Store.CreateGame(r.Context(), id, now); err != nil {
		logging.Errorf("create game %s: %v", id, err)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "state": st})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

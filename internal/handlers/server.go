package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the authority routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLog)
	r.Get("/", h.HandlePage)
	r.Get("/state", h.HandleState)
	r.Get("/moves", h.HandleMoves)
	r.Post("/move", h.HandleMove)
	r.Post("/reset", h.HandleReset)
	return r
}

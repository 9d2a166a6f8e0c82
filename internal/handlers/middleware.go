package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"chessfront/internal/logging"
	"chessfront/pkg/utils"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLog tags each request with a short id, echoes it in X-Request-Id
// and logs method, path, status and latency.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := utils.RandomHex(4)
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		if rec.status >= http.StatusInternalServerError {
			log.Printf("[%s] %s %s %s -> %d (%s)", id, ClientIP(r), r.Method, r.URL.Path, rec.status, time.Since(start))
			return
		}
		logging.Debugf("[%s] %s %s %s -> %d (%s)", id, ClientIP(r), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

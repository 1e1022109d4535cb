// Package api exposes the HTTP surface: auth endpoints, the three query
// endpoints and the session read endpoints, all JSON over a standard
// ServeMux with method-scoped patterns.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/wildquest-ai/wildquest/internal/auth"
	"github.com/wildquest-ai/wildquest/internal/chat"
	"github.com/wildquest-ai/wildquest/internal/user"
)

// Server holds the handler dependencies.
type Server struct {
	users user.Store
	auth  *auth.Issuer
	chat  *chat.Service
	log   *slog.Logger
}

func NewServer(users user.Store, issuer *auth.Issuer, svc *chat.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{users: users, auth: issuer, chat: svc, log: logger}
}

// Handler builds the full route table wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sign_up", s.handleSignUp)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /query_ai", s.handleQueryAI)
	mux.HandleFunc("POST /query_location", s.handleQueryLocation)
	mux.HandleFunc("POST /query_place", s.handleQueryPlace)
	mux.HandleFunc("GET /session-history/", s.handleSessionList)
	mux.HandleFunc("GET /session-history/{id}", s.handleSessionHistory)
	mux.HandleFunc("GET /get_all_places/{id}", s.handlePlaces)
	mux.HandleFunc("GET /health", s.handleHealth)

	return cors.AllowAll().Handler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

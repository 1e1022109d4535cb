package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wildquest-ai/wildquest/internal/auth"
	"github.com/wildquest-ai/wildquest/internal/chat"
	"github.com/wildquest-ai/wildquest/internal/session"
	"github.com/wildquest-ai/wildquest/internal/user"
)

const placeNotFoundMessage = "No matching place found in this session. Please try a different name."

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type queryAIRequest struct {
	Query     string `json:"query"`
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

type queryLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Token     string  `json:"token"`
	SessionID string  `json:"session_id"`
	Question  string  `json:"question"`
}

type queryPlaceRequest struct {
	PlaceName string `json:"place_name"`
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type queryResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := s.users.Create(r.Context(), req.Username, req.Password); err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}

	valid, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !valid {
		s.writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := s.auth.Issue(req.Username)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleQueryAI(w http.ResponseWriter, r *http.Request) {
	var req queryAIRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := s.auth.Verify(req.Token)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	response, sessionID, err := s.chat.Ask(r.Context(), owner, req.SessionID, req.Query)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queryResponse{Response: response, SessionID: sessionID})
}

func (s *Server) handleQueryLocation(w http.ResponseWriter, r *http.Request) {
	var req queryLocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := s.auth.Verify(req.Token)
	if err != nil {
		s.respondError(w, err)
		return
	}

	response, sessionID, err := s.chat.LocationQuery(r.Context(), owner, req.SessionID, req.Latitude, req.Longitude, req.Question)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queryResponse{Response: response, SessionID: sessionID})
}

func (s *Server) handleQueryPlace(w http.ResponseWriter, r *http.Request) {
	var req queryPlaceRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := s.auth.Verify(req.Token)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.PlaceName == "" {
		s.writeError(w, http.StatusBadRequest, "place_name is required")
		return
	}

	response, found, err := s.chat.PlaceQuery(r.Context(), owner, req.SessionID, req.PlaceName, req.Question)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !found {
		s.writeJSON(w, http.StatusOK, queryResponse{Response: placeNotFoundMessage, SessionID: req.SessionID})
		return
	}
	s.writeJSON(w, http.StatusOK, queryResponse{Response: response, SessionID: req.SessionID})
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	owner, err := s.auth.Verify(r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	conversations, err := s.chat.History(r.Context(), owner)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": conversations})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	owner, err := s.auth.Verify(r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	conversation, err := s.chat.SessionHistory(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conversation)
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	owner, err := s.auth.Verify(r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	sessionID := r.PathValue("id")
	places, err := s.chat.Places(r.Context(), owner, sessionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"places": places, "session_id": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondError maps domain errors onto HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var upstreamErr *chat.UpstreamError
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, chat.ErrForbidden):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrNotFound), errors.Is(err, chat.ErrSummaryNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrLocationAlreadyQueried):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrExists):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstreamErr):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("internal error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

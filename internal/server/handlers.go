package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const sessionTokenKey ctxKey = 0

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UseWebSearch   bool   `json:"use_web_search"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	// One generic denial regardless of cause: wrong password, unreachable
	// backend, or a recovery-hash mismatch all look the same to the client.
	if !s.verifier.Verify(r.Context(), req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "incorrect password"})
		return
	}

	token, err := s.sessions.Create(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("session create failed")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "incorrect password"})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(sessionTokenKey).(string)
	if err := s.sessions.Delete(r.Context(), token); err != nil {
		s.logger.Error().Err(err).Msg("session delete failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	list := s.conversations.List(r.Context())
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing conversation id"})
		return
	}
	s.conversations.Delete(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is empty"})
		return
	}

	token, _ := r.Context().Value(sessionTokenKey).(string)
	if s.limiter != nil {
		allowed, _, resetAt, err := s.limiter.Allow(r.Context(), token, time.Now())
		if err != nil {
			s.logger.Error().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			w.Header().Set("Retry-After", resetAt.UTC().Format(http.TimeFormat))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
	}

	conv, _ := s.turns.Lookup(r.Context(), req.ConversationID)
	conv = s.turns.Turn(r.Context(), conv, req.Message, req.UseWebSearch)
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		ok, err := s.sessions.Valid(r.Context(), token)
		if err != nil {
			s.logger.Error().Err(err).Msg("session check failed")
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
			return
		}
		ctx := context.WithValue(r.Context(), sessionTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/etnz/fins"
	"github.com/etnz/fins/storage"
)

// InterpretRequest is the body of POST /api/interpret.
type InterpretRequest struct {
	Command string `json:"command"`
}

// VariablesResponse is the body of GET /api/variables.
type VariablesResponse struct {
	Paths []string `json:"paths"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInterpret runs a command. Error outputs are regular 200 responses.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("command is required"))
		return
	}
	out := s.interp.Interpret(r.Context(), req.Command)
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	paths, err := s.interp.Storage().List(r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	s.writeJSON(w, http.StatusOK, VariablesResponse{Paths: paths})
}

// handleDeleteVariable deletes /api/variables/a/b as "/a/b" and
// /api/variables/$a as "$a".
func (s *Server) handleDeleteVariable(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if !strings.HasPrefix(path, "$") {
		path = "/" + path
	}
	found, err := s.interp.Storage().Delete(path)
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, storage.ErrLocked):
		s.writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	case !found:
		s.writeError(w, http.StatusNotFound, fins.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.columns.Definitions())
}

package server

import (
	"net/http"

	"github.com/claude/liftlog/internal/logbook"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "exercise")
	if !ok {
		return
	}
	ex, err := s.svc.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var form logbook.ExerciseForm
	if !decodeJSON(w, r, &form) {
		return
	}
	ex, err := s.svc.CreateExercise(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "exercise")
	if !ok {
		return
	}
	var form logbook.ExerciseForm
	if !decodeJSON(w, r, &form) {
		return
	}
	ex, err := s.svc.UpdateExercise(r.Context(), id, form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "exercise")
	if !ok {
		return
	}
	if err := s.svc.DeleteExercise(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

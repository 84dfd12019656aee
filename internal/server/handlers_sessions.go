package server

import (
	"net/http"

	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/progress"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	rng, err := parseTimeRange(r, s.svc.Now(), s.svc.Location())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	exerciseID, err := exerciseParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rows, err := s.svc.ListSessions(r.Context(), rng, exerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLogSession(w http.ResponseWriter, r *http.Request) {
	var form logbook.SessionForm
	if !decodeJSON(w, r, &form) {
		return
	}
	res, err := s.svc.LogSession(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.CounterSessions.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleEditSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "session")
	if !ok {
		return
	}
	var form logbook.SessionForm
	if !decodeJSON(w, r, &form) {
		return
	}
	row, err := s.svc.EditSession(r.Context(), id, form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.CounterSessions.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "session")
	if !ok {
		return
	}
	if err := s.svc.DeleteSession(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.CounterSessions.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var form logbook.SessionForm
	if !decodeJSON(w, r, &form) {
		return
	}
	res, err := s.svc.Preview(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	rng, err := parseTimeRange(r, s.svc.Now(), s.svc.Location())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	exerciseID, err := exerciseParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	result, err := s.svc.Progress(r.Context(), rng, exerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := progress.ParsePeriod(q.Get("period"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	exerciseID, err := exerciseParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	ranked, err := s.svc.Top(r.Context(), logbook.TopQuery{
		ExerciseID:  exerciseID,
		Period:      period,
		Limit:       limit,
		RecordsOnly: q.Get("records") == "true" || q.Get("records") == "1",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := progress.ParsePeriod(q.Get("period"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bucket, err := progress.ParseBucket(q.Get("bucket"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	exerciseID, err := exerciseParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	points, err := intParam(r, "points", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	series, err := s.svc.Series(r.Context(), exerciseID, period, bucket, points)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

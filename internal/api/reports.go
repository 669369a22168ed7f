package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/report"
)

// defaultReportLimit bounds report listings when the client does not ask
// for a limit. ?limit=0 returns everything.
const defaultReportLimit = 100

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit %q is not an integer", raw))
			return
		}
		limit = n
	}

	if s.reports == nil {
		writeJSON(w, http.StatusOK, []*report.Report{})
		return
	}
	reports, err := s.reports.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "report id %q is not a UUID", id))
		return
	}

	if s.reports == nil {
		writeError(w, errors.New(errors.ErrCodeReportNotFound, "report %q not found", id))
		return
	}
	rep, err := s.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rep == nil {
		writeError(w, errors.New(errors.ErrCodeReportNotFound, "report %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

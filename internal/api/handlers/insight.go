package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/factstore/internal/service"
)

// InsightHandler serves the read-only views over history: timeline,
// changelog and cross-session patterns.
type InsightHandler struct {
	temporal  *service.TemporalService
	changelog *service.ChangelogService
	patterns  *service.PatternService
}

func NewInsightHandler(ts *service.TemporalService, cs *service.ChangelogService, ps *service.PatternService) *InsightHandler {
	return &InsightHandler{temporal: ts, changelog: cs, patterns: ps}
}

func (h *InsightHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", service.DefaultTemporalLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	phrase := r.URL.Query().Get("q")
	if phrase == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	result, err := h.temporal.Query(r.Context(), phrase, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "timeline query failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InsightHandler) Changelog(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", service.DefaultChangelogLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	cl, err := h.changelog.Query(r.Context(), service.ChangelogQuery{
		Keyword: r.URL.Query().Get("keyword"),
		Limit:   limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "changelog query failed")
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func (h *InsightHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", service.DefaultPatternDays)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid days")
		return
	}
	minSessions, ok := queryInt(r, "min_sessions", service.DefaultPatternMinSessions)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid min_sessions")
		return
	}

	report, err := h.patterns.Analyze(r.Context(), service.PatternOptions{Days: days, MinSessions: minSessions})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pattern analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

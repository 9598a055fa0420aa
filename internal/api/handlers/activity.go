package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
)

type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (h *ActivityHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var e domain.Event
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RecordEvent(r.Context(), &e); err != nil {
		writeServiceError(w, err, "failed to record event")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ActivityHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var s domain.Session
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RecordSession(r.Context(), &s); err != nil {
		writeServiceError(w, err, "failed to record session")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *ActivityHandler) UpsertProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpsertProject(r.Context(), &p); err != nil {
		writeServiceError(w, err, "failed to save project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ActivityHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := h.svc.ListArchive(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list archive")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

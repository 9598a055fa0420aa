package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
)

type GraphHandler struct {
	svc *service.GraphService
}

func NewGraphHandler(svc *service.GraphService) *GraphHandler {
	return &GraphHandler{svc: svc}
}

type relationRequest struct {
	From         string              `json:"from"`
	To           string              `json:"to"`
	RelationType domain.RelationType `json:"relation_type"`
}

type linkResponse struct {
	Relation *domain.Relation `json:"relation"`
	Created  bool             `json:"created"`
}

func (h *GraphHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rel, created, err := h.svc.Link(r.Context(), req.From, req.To, req.RelationType)
	if err != nil {
		writeServiceError(w, err, "failed to link facts")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, linkResponse{Relation: rel, Created: created})
}

func (h *GraphHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Unlink(r.Context(), req.From, req.To, req.RelationType); err != nil {
		writeServiceError(w, err, "failed to unlink facts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GraphHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Neighbors(r.Context(), r.URL.Query().Get("ref"))
	if err != nil {
		writeServiceError(w, err, "failed to load neighbors")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type walkResponse struct {
	Root  string            `json:"root"`
	Depth int               `json:"depth"`
	Nodes []domain.WalkNode `json:"nodes"`
	Count int               `json:"count"`
}

func (h *GraphHandler) Walk(w http.ResponseWriter, r *http.Request) {
	depth, ok := queryInt(r, "depth", service.DefaultWalkDepth)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid depth")
		return
	}

	ref := r.URL.Query().Get("ref")
	nodes, err := h.svc.Walk(r.Context(), ref, depth)
	if err != nil {
		writeServiceError(w, err, "failed to walk graph")
		return
	}
	writeJSON(w, http.StatusOK, walkResponse{Root: ref, Depth: depth, Nodes: nodes, Count: len(nodes)})
}

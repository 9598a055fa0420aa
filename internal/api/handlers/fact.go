package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type FactHandler struct {
	svc *service.FactService
}

func NewFactHandler(svc *service.FactService) *FactHandler {
	return &FactHandler{svc: svc}
}

type upsertFactRequest struct {
	Category   string            `json:"category"`
	Key        string            `json:"key"`
	Value      string            `json:"value"`
	Source     string            `json:"source,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
	Scope      domain.Scope      `json:"scope,omitempty"`
	Tier       domain.Tier       `json:"tier,omitempty"`
	SourceType domain.SourceType `json:"source_type,omitempty"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
}

type listFactsResponse struct {
	Facts []domain.Fact `json:"facts"`
	Count int           `json:"count"`
}

type refRequest struct {
	Ref string `json:"ref"`
}

func (h *FactHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertFactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f := &domain.Fact{
		Category:   req.Category,
		Key:        req.Key,
		Value:      req.Value,
		Source:     req.Source,
		Confidence: 1,
		Scope:      req.Scope,
		Tier:       req.Tier,
		SourceType: req.SourceType,
		ExpiresAt:  req.ExpiresAt,
	}
	if req.Confidence != nil {
		f.Confidence = *req.Confidence
	}

	result, err := h.svc.Upsert(r.Context(), f)
	if err != nil {
		writeServiceError(w, err, "failed to save fact")
		return
	}

	status := http.StatusOK
	if result.Outcome == domain.UpsertCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *FactHandler) ApplyExtracted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Facts []domain.ExtractedFact `json:"facts"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.svc.ApplyExtracted(r.Context(), req.Facts)
	if err != nil {
		writeServiceError(w, err, "failed to apply extracted facts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (h *FactHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	filter := domain.FactFilter{
		Category: q.Get("category"),
		Scope:    domain.Scope(q.Get("scope")),
		Tier:     domain.Tier(q.Get("tier")),
		Order:    domain.FactOrder(q.Get("order")),
		Limit:    limit,
	}

	facts, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "failed to list facts")
		return
	}
	if facts == nil {
		facts = []domain.Fact{}
	}
	writeJSON(w, http.StatusOK, listFactsResponse{Facts: facts, Count: len(facts)})
}

func (h *FactHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	facts, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, err, "search failed")
		return
	}
	if facts == nil {
		facts = []domain.Fact{}
	}
	writeJSON(w, http.StatusOK, listFactsResponse{Facts: facts, Count: len(facts)})
}

// refFromPath rebuilds category/key from /ref/{category}/*. Keys may contain
// slashes.
func refFromPath(r *http.Request) string {
	return chi.URLParam(r, "category") + "/" + chi.URLParam(r, "*")
}

func (h *FactHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Get(r.Context(), refFromPath(r))
	if err != nil {
		writeServiceError(w, err, "failed to get fact")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), refFromPath(r)); err != nil {
		writeServiceError(w, err, "failed to delete fact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FactHandler) TrackAccess(w http.ResponseWriter, r *http.Request) {
	var req refRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.svc.TrackAccess(r.Context(), req.Ref)
	if err != nil {
		writeServiceError(w, err, "failed to record access")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FactHandler) History(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	entries, err := h.svc.History(r.Context(), ref)
	if err != nil {
		writeServiceError(w, err, "failed to load history")
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ref": ref, "entries": entries})
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Harshitk-cp/factstore/internal/service"
)

// Reindexer rebuilds the search index from the store.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

type MaintenanceHandler struct {
	consolidation *service.ConsolidationService
	forgetting    *service.ForgettingService
	expirer       *service.ExpirerService
	reindexer     Reindexer
}

func NewMaintenanceHandler(cs *service.ConsolidationService, fs *service.ForgettingService, es *service.ExpirerService, ri Reindexer) *MaintenanceHandler {
	return &MaintenanceHandler{consolidation: cs, forgetting: fs, expirer: es, reindexer: ri}
}

// decodeOptional decodes a JSON body into v, leaving v untouched when the
// body is empty.
func decodeOptional(r *http.Request, v any) error {
	err := decodeJSON(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *MaintenanceHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	opts := service.DefaultConsolidationOptions()
	if err := decodeOptional(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.consolidation.Consolidate(r.Context(), opts)
	if err != nil {
		if result != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "partial": result})
			return
		}
		writeServiceError(w, err, "consolidation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MaintenanceHandler) Forget(w http.ResponseWriter, r *http.Request) {
	opts := service.DefaultForgettingOptions()
	if err := decodeOptional(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.forgetting.Run(r.Context(), opts)
	if err != nil {
		if result != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "partial": result})
			return
		}
		writeServiceError(w, err, "forgetting run failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MaintenanceHandler) Expire(w http.ResponseWriter, r *http.Request) {
	n, err := h.expirer.ExpireWorking(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "expiry sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"expired": n})
}

func (h *MaintenanceHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.reindexer.Reindex(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

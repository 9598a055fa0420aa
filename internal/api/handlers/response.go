package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryInt returns the named query parameter, def when absent, or ok=false
// when it is present but not an integer.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

var badRequestErrs = []error{
	domain.ErrInvalidRef,
	domain.ErrInvalidTTL,
	domain.ErrInvalidScope,
	domain.ErrInvalidTier,
	domain.ErrInvalidSourceType,
	domain.ErrInvalidConfidence,
	domain.ErrCategoryEmpty,
	domain.ErrKeyEmpty,
	domain.ErrValueEmpty,
	domain.ErrInvalidOrder,
	service.ErrSearchQueryEmpty,
	service.ErrInvalidRelationType,
	service.ErrInvalidThreshold,
	service.ErrInvalidForgettingOptions,
	service.ErrEventTypeEmpty,
	service.ErrSessionStyleEmpty,
	service.ErrProjectNameEmpty,
}

// writeServiceError maps service and validation errors to a status. Anything
// unrecognized is reported as a 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	switch {
	case errors.Is(err, service.ErrFactNotFound), errors.Is(err, service.ErrRelationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrFactConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

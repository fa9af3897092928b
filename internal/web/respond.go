package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/movequote/internal/detection"
	"github.com/vbonduro/movequote/internal/inventory"
	"github.com/vbonduro/movequote/internal/rates"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write json failed", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes. Anything unexpected
// is logged and reported as a 500 with a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, inventory.ErrRoomNotFound),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, inventory.ErrPhotoNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, rates.ErrInvalidRate),
		errors.Is(err, inventory.ErrNotFurniture):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, detection.ErrClosed):
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
		s.logger.Error(msg, append(attrs, "error", err)...)
	}
}

func parseRoomID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
}

func parseQuoteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "quoteID"), 10, 64)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/optiwealth/optiwealth/internal/handler/dto"
	"github.com/optiwealth/optiwealth/internal/symbols"
)

const (
	defaultSymbolSearchLimit = 10
	maxSymbolSearchLimit     = 50
)

// SymbolHandler answers symbol lookups against the loaded symbol set.
type SymbolHandler struct {
	set *symbols.Set
}

// NewSymbolHandler creates a new SymbolHandler.
func NewSymbolHandler(set *symbols.Set) *SymbolHandler {
	return &SymbolHandler{set: set}
}

// Check handles GET /api/v1/symbols/{symbol}.
func (h *SymbolHandler) Check(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	writeJSON(w, http.StatusOK, dto.SymbolResponse{
		Symbol: symbol,
		Valid:  h.set.IsValid(symbol),
	})
}

// Search handles GET /api/v1/symbols?prefix=AA&limit=10.
func (h *SymbolHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	prefix := symbols.Normalize(query.Get("prefix"))
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "prefix is required")
		return
	}

	limit := defaultSymbolSearchLimit
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxSymbolSearchLimit {
			limit = parsed
		}
	}

	writeJSON(w, http.StatusOK, dto.SymbolSearchResponse{
		Prefix:  prefix,
		Symbols: h.set.WithPrefix(prefix, limit),
	})
}

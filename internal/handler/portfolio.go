package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/optiwealth/optiwealth/internal/handler/dto"
	"github.com/optiwealth/optiwealth/internal/service"
)

// PortfolioHandler handles HTTP requests for portfolio operations.
type PortfolioHandler struct {
	svc    *service.PortfolioService
	logger *slog.Logger
	errs   errorMapper
}

// NewPortfolioHandler creates a new PortfolioHandler. hideForeign reports
// portfolios owned by someone else as 404 instead of 403.
func NewPortfolioHandler(svc *service.PortfolioService, logger *slog.Logger, hideForeign bool) *PortfolioHandler {
	return &PortfolioHandler{
		svc:    svc,
		logger: logger,
		errs:   errorMapper{logger: logger, hideForeign: hideForeign},
	}
}

// Create handles POST /api/v1/portfolios.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	p, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("portfolio_created",
		slog.String("portfolio_id", p.ID),
		slog.String("owner_id", p.OwnerID),
	)

	writeJSON(w, http.StatusCreated, dto.ToPortfolioResponse(p))
}

// List handles GET /api/v1/portfolios.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.svc.List(r.Context())
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.PortfolioResponse]{Data: dto.ToPortfolioResponses(portfolios)})
}

// Get handles GET /api/v1/portfolios/{id}.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPortfolioResponse(p))
}

// Rename handles PATCH /api/v1/portfolios/{id}.
func (h *PortfolioHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req dto.PortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	p, err := h.svc.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPortfolioResponse(p))
}

// Delete handles DELETE /api/v1/portfolios/{id}.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("portfolio_deleted", slog.String("portfolio_id", id))

	w.WriteHeader(http.StatusNoContent)
}

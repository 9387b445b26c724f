package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/optiwealth/optiwealth/internal/handler/dto"
	"github.com/optiwealth/optiwealth/internal/service"
)

// HoldingHandler handles HTTP requests for holding operations.
type HoldingHandler struct {
	svc    *service.HoldingService
	logger *slog.Logger
	errs   errorMapper
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(svc *service.HoldingService, logger *slog.Logger, hideForeign bool) *HoldingHandler {
	return &HoldingHandler{
		svc:    svc,
		logger: logger,
		errs:   errorMapper{logger: logger, hideForeign: hideForeign},
	}
}

// Create handles POST /api/v1/portfolios/{id}/holdings.
func (h *HoldingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateHoldingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	holding, err := h.svc.Add(r.Context(), chi.URLParam(r, "id"), service.HoldingInput{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		AvgCost:  req.AvgCost,
	})
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("holding_created",
		slog.String("holding_id", holding.ID),
		slog.String("portfolio_id", holding.PortfolioID),
		slog.String("symbol", holding.Symbol),
	)

	writeJSON(w, http.StatusCreated, dto.ToHoldingResponse(holding))
}

// List handles GET /api/v1/portfolios/{id}/holdings.
func (h *HoldingHandler) List(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.svc.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.HoldingResponse]{Data: dto.ToHoldingResponses(holdings)})
}

// Get handles GET /api/v1/holdings/{id}.
func (h *HoldingHandler) Get(w http.ResponseWriter, r *http.Request) {
	holding, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToHoldingResponse(holding))
}

// Update handles PUT /api/v1/holdings/{id}.
func (h *HoldingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateHoldingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	holding, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.AvgCost)
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToHoldingResponse(holding))
}

// Delete handles DELETE /api/v1/holdings/{id}.
func (h *HoldingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("holding_deleted", slog.String("holding_id", id))

	w.WriteHeader(http.StatusNoContent)
}

package valuation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the valuation module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs valuation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers valuation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products/{productID}/valuation/recompute", h.handleRecompute)
	r.Get("/products/{productID}/cost", h.handleCost)
	r.Get("/products/{productID}/monthly-costs", h.handleMonthlyCosts)
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	result, err := h.service.Recompute(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"noData":      result.NoData,
		"currentCost": result.CurrentCost,
		"baseCost":    result.BaseCost,
		"storageCost": result.StorageCost,
		"quantity":    result.Quantity,
		"yearMonth":   result.YearMonth,
	})
}

func (h *Handler) handleCost(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	lookup, err := h.service.GetCurrentCost(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"cost":   lookup.Cost,
		"source": string(lookup.Source),
	})
}

func (h *Handler) handleMonthlyCosts(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.service.MonthlyHistory(r.Context(), productID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	type monthlyCostResponse struct {
		YearMonth   string  `json:"yearMonth"`
		BaseCost    float64 `json:"baseCost"`
		StorageCost float64 `json:"storageCost"`
		TotalCost   float64 `json:"totalCost"`
		Quantity    float64 `json:"quantity"`
	}
	out := make([]monthlyCostResponse, 0, len(history))
	for _, mc := range history {
		out = append(out, monthlyCostResponse{
			YearMonth:   string(mc.YearMonth),
			BaseCost:    mc.BaseCost,
			StorageCost: mc.StorageCost,
			TotalCost:   mc.TotalCost,
			Quantity:    mc.Quantity,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"months": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidProduct):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrProductCostNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("valuation request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}

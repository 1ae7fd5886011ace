package storagecost

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the storage cost module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs storage cost handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers storage cost routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/storage/rate", h.handleRate)
	r.Get("/products/{productID}/cost-with-storage", h.handleCostWithStorage)
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.Rate(r.Context())
	if err != nil {
		h.logger.Error("storage rate failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"storageCostRate": rate})
}

func (h *Handler) handleCostWithStorage(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	breakdown, err := h.service.ProductCostWithStorage(r.Context(), productID)
	if err != nil {
		if errors.Is(err, ErrInvalidProduct) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("cost with storage failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

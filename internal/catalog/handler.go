package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the product master.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products", h.handleCreate)
	r.Get("/products", h.handleList)
	r.Get("/products/{productID}", h.handleGet)
	r.Put("/products/{productID}/purchase-price", h.handleUpdatePurchasePrice)
	r.Get("/products/{productID}/price-history", h.handlePriceHistory)
}

type productResponse struct {
	ID                   int64    `json:"id"`
	Code                 string   `json:"code"`
	Name                 string   `json:"name"`
	Unit                 string   `json:"unit"`
	DefaultPurchasePrice float64  `json:"defaultPurchasePrice"`
	CurrentCost          *float64 `json:"currentCost"`
	LastCostUpdatedAt    *string  `json:"lastCostUpdatedAt"`
}

type createProductRequest struct {
	Code                 string  `json:"code" validate:"required"`
	Name                 string  `json:"name" validate:"required"`
	Unit                 string  `json:"unit"`
	DefaultPurchasePrice float64 `json:"defaultPurchasePrice" validate:"gte=0"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateProduct(r.Context(), CreateProductInput{
		Code:                 req.Code,
		Name:                 req.Name,
		Unit:                 req.Unit,
		DefaultPurchasePrice: req.DefaultPurchasePrice,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProductResponse(created))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": out})
}

type updatePurchasePriceRequest struct {
	PurchasePrice float64 `json:"purchasePrice" validate:"gte=0"`
	EffectiveDate string  `json:"effectiveDate"`
	Notes         string  `json:"notes"`
}

func (h *Handler) handleUpdatePurchasePrice(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	var req updatePurchasePriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var effective time.Time
	if req.EffectiveDate != "" {
		effective, err = time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "effectiveDate tidak valid")
			return
		}
	}
	err = h.service.UpdatePurchasePrice(r.Context(), UpdatePurchasePriceInput{
		ProductID:     productID,
		PurchasePrice: req.PurchasePrice,
		EffectiveDate: effective,
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productID tidak valid")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.service.PriceHistory(r.Context(), productID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	type entryResponse struct {
		ID            int64   `json:"id"`
		EffectiveDate string  `json:"effectiveDate"`
		PurchasePrice float64 `json:"purchasePrice"`
		Notes         string  `json:"notes"`
	}
	out := make([]entryResponse, 0, len(history))
	for _, e := range history {
		out = append(out, entryResponse{
			ID:            e.ID,
			EffectiveDate: e.EffectiveDate.Format("2006-01-02"),
			PurchasePrice: e.PurchasePrice,
			Notes:         e.Notes,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}

func toProductResponse(p Product) productResponse {
	resp := productResponse{
		ID:                   p.ID,
		Code:                 p.Code,
		Name:                 p.Name,
		Unit:                 p.Unit,
		DefaultPurchasePrice: p.DefaultPurchasePrice,
		CurrentCost:          p.CurrentCost,
	}
	if p.LastCostUpdatedAt != nil {
		s := p.LastCostUpdatedAt.Format(time.RFC3339)
		resp.LastCostUpdatedAt = &s
	}
	return resp
}

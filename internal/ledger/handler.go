package ledger

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

// Handler wires HTTP endpoints for the auto-ledger bridge.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger/auto-purchases", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/by-import/{importID}", h.handleFindByImport)
		r.Get("/by-sales/{salesID}", h.handleFindBySales)
		r.Delete("/by-import/{importID}", h.handleDeleteByImport)
		r.Delete("/by-sales/{salesID}", h.handleDeleteBySales)
	})
}

type autoPurchaseRequest struct {
	ProductID      int64   `json:"productId" validate:"required"`
	VendorID       int64   `json:"vendorId"`
	SalespersonID  int64   `json:"salespersonId"`
	CategoryID     int64   `json:"categoryId"`
	ItemName       string  `json:"itemName"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice      float64 `json:"unitPrice" validate:"gte=0"`
	Date           string  `json:"date"`
	Source         string  `json:"source" validate:"required,oneof=IMPORT_AUTO INBOUND_AUTO SALES_AUTO"`
	LinkedSalesID  *int64  `json:"linkedSalesId"`
	ImportExportID *int64  `json:"importExportId"`
}

type recordResponse struct {
	ID             int64   `json:"id"`
	Type           string  `json:"type"`
	ProductID      int64   `json:"productId"`
	ItemName       string  `json:"itemName"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	Amount         float64 `json:"amount"`
	Cost           float64 `json:"cost"`
	Margin         float64 `json:"margin"`
	MarginRate     float64 `json:"marginRate"`
	CostSource     *string `json:"costSource"`
	LinkedSalesID  *int64  `json:"linkedSalesId"`
	ImportExportID *int64  `json:"importExportId"`
	RecordDate     string  `json:"recordDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req autoPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date tidak valid")
			return
		}
	}
	rec, err := h.service.CreateAutoPurchase(r.Context(), AutoPurchaseInput{
		ProductID:      req.ProductID,
		VendorID:       req.VendorID,
		SalespersonID:  req.SalespersonID,
		CategoryID:     req.CategoryID,
		ItemName:       req.ItemName,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		Date:           date,
		Source:         CostSource(req.Source),
		LinkedSalesID:  req.LinkedSalesID,
		ImportExportID: req.ImportExportID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) handleFindByImport(w http.ResponseWriter, r *http.Request) {
	importID, err := strconv.ParseInt(chi.URLParam(r, "importID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	records, err := h.service.FindByImportID(r.Context(), importID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": recordResponses(records)})
}

func (h *Handler) handleFindBySales(w http.ResponseWriter, r *http.Request) {
	salesID, err := strconv.ParseInt(chi.URLParam(r, "salesID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "salesID tidak valid")
		return
	}
	records, err := h.service.FindBySalesID(r.Context(), salesID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": recordResponses(records)})
}

func (h *Handler) handleDeleteByImport(w http.ResponseWriter, r *http.Request) {
	importID, err := strconv.ParseInt(chi.URLParam(r, "importID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	deleted, err := h.service.DeleteByImportID(r.Context(), importID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) handleDeleteBySales(w http.ResponseWriter, r *http.Request) {
	salesID, err := strconv.ParseInt(chi.URLParam(r, "salesID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "salesID tidak valid")
		return
	}
	deleted, err := h.service.DeleteBySalesID(r.Context(), salesID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSource),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidProduct):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}

func recordResponses(records []SalesRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

func toRecordResponse(rec SalesRecord) recordResponse {
	resp := recordResponse{
		ID:             rec.ID,
		Type:           string(rec.Type),
		ProductID:      rec.ProductID,
		ItemName:       rec.ItemName,
		Quantity:       rec.Quantity,
		UnitPrice:      rec.UnitPrice,
		Amount:         rec.Amount,
		Cost:           rec.Cost,
		Margin:         rec.Margin,
		MarginRate:     rec.MarginRate,
		LinkedSalesID:  rec.LinkedSalesID,
		ImportExportID: rec.ImportExportID,
		RecordDate:     rec.RecordDate.Format("2006-01-02"),
	}
	if rec.CostSource != nil {
		s := string(*rec.CostSource)
		resp.CostSource = &s
	}
	return resp
}

package lots

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for the lots module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs lots handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers lot routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/imports/{importID}", func(r chi.Router) {
		r.Post("/lots", h.handleCreateBatch)
		r.Get("/lots", h.handleListByImport)
		r.Delete("/lots", h.handleDeleteByImport)
		r.Post("/relocate", h.handleRelocate)
	})
	r.Post("/lots", h.handleCreateSingle)
}

type lineItemRequest struct {
	ProductID int64   `json:"productId" validate:"required"`
	ItemName  string  `json:"itemName"`
	Qty       float64 `json:"qty" validate:"required,gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

type createBatchRequest struct {
	VendorID        int64             `json:"vendorId"`
	SalespersonID   int64             `json:"salespersonId"`
	CategoryID      int64             `json:"categoryId"`
	ReceivedDate    string            `json:"receivedDate"`
	StorageLocation string            `json:"storageLocation" validate:"required,oneof=WAREHOUSE OFFICE"`
	GoodsAmount     *float64          `json:"goodsAmount"`
	ExchangeRate    *float64          `json:"exchangeRate"`
	DutyAmount      *float64          `json:"dutyAmount"`
	ShippingCost    *float64          `json:"shippingCost"`
	OtherCost       *float64          `json:"otherCost"`
	Items           []lineItemRequest `json:"items" validate:"required,min=1,dive"`
}

type lotResponse struct {
	ID              int64   `json:"id"`
	LotCode         string  `json:"lotCode"`
	ProductID       int64   `json:"productId"`
	VendorID        int64   `json:"vendorId"`
	ReceivedDate    string  `json:"receivedDate"`
	QtyReceived     float64 `json:"qtyReceived"`
	QtyRemaining    float64 `json:"qtyRemaining"`
	UnitCost        float64 `json:"unitCost"`
	GoodsAmount     float64 `json:"goodsAmount"`
	DutyAmount      float64 `json:"dutyAmount"`
	DomesticFreight float64 `json:"domesticFreight"`
	OtherCost       float64 `json:"otherCost"`
	WarehouseFee    float64 `json:"warehouseFee"`
	StorageLocation string  `json:"storageLocation"`
}

func (h *Handler) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	importID, err := pathID(r, "importID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	var req createBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateFromImportInput{
		ImportExportID: importID,
		VendorID:       req.VendorID,
		SalespersonID:  req.SalespersonID,
		CategoryID:     req.CategoryID,
		ReceivedDate:   parseDate(req.ReceivedDate),
		Location:       StorageLocation(req.StorageLocation),
		Costs: costing.Input{
			GoodsAmount:  optionalAmount(req.GoodsAmount),
			ExchangeRate: optionalAmount(req.ExchangeRate),
			DutyAmount:   optionalAmount(req.DutyAmount),
			ShippingCost: optionalAmount(req.ShippingCost),
			OtherCost:    optionalAmount(req.OtherCost),
		},
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, LineItem{
			ProductID: item.ProductID,
			ItemName:  item.ItemName,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}

	created, err := h.service.CreateFromImport(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"lots": lotResponses(created)})
}

type createSingleRequest struct {
	ImportExportID  *int64  `json:"importExportId"`
	LinkedSalesID   *int64  `json:"linkedSalesId"`
	ProductID       int64   `json:"productId" validate:"required"`
	VendorID        int64   `json:"vendorId"`
	SalespersonID   int64   `json:"salespersonId"`
	CategoryID      int64   `json:"categoryId"`
	ItemName        string  `json:"itemName"`
	Qty             float64 `json:"qty" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unitPrice" validate:"gte=0"`
	GoodsAmount     float64 `json:"goodsAmount"`
	DutyAmount      float64 `json:"dutyAmount"`
	DomesticFreight float64 `json:"domesticFreight"`
	OtherCost       float64 `json:"otherCost"`
	ReceivedDate    string  `json:"receivedDate"`
	StorageLocation string  `json:"storageLocation" validate:"required,oneof=WAREHOUSE OFFICE"`
}

func (h *Handler) handleCreateSingle(w http.ResponseWriter, r *http.Request) {
	var req createSingleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	lot, err := h.service.CreateSingle(r.Context(), CreateSingleInput{
		ImportExportID:  req.ImportExportID,
		LinkedSalesID:   req.LinkedSalesID,
		ProductID:       req.ProductID,
		VendorID:        req.VendorID,
		SalespersonID:   req.SalespersonID,
		CategoryID:      req.CategoryID,
		ItemName:        req.ItemName,
		Qty:             req.Qty,
		UnitPrice:       req.UnitPrice,
		GoodsAmount:     req.GoodsAmount,
		DutyAmount:      req.DutyAmount,
		DomesticFreight: req.DomesticFreight,
		OtherCost:       req.OtherCost,
		ReceivedDate:    parseDate(req.ReceivedDate),
		Location:        StorageLocation(req.StorageLocation),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLotResponse(lot))
}

func (h *Handler) handleListByImport(w http.ResponseWriter, r *http.Request) {
	importID, err := pathID(r, "importID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	list, err := h.service.ListByImport(r.Context(), importID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lots": lotResponses(list)})
}

type relocateRequest struct {
	StorageLocation string `json:"storageLocation" validate:"required,oneof=WAREHOUSE OFFICE"`
}

func (h *Handler) handleRelocate(w http.ResponseWriter, r *http.Request) {
	importID, err := pathID(r, "importID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	var req relocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payload tidak valid")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	moved, err := h.service.RelocateByImport(r.Context(), importID, StorageLocation(req.StorageLocation))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"moved": moved})
}

func (h *Handler) handleDeleteByImport(w http.ResponseWriter, r *http.Request) {
	importID, err := pathID(r, "importID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "importID tidak valid")
		return
	}
	affected, err := h.service.DeleteByImport(r.Context(), importID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"affectedProducts": affected})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidProduct),
		errors.Is(err, ErrStorageLocationRequired),
		errors.Is(err, costing.ErrInvalidItemCount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("lots request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}

func lotResponses(list []Lot) []lotResponse {
	out := make([]lotResponse, 0, len(list))
	for _, lot := range list {
		out = append(out, toLotResponse(lot))
	}
	return out
}

func toLotResponse(lot Lot) lotResponse {
	return lotResponse{
		ID:              lot.ID,
		LotCode:         lot.LotCode,
		ProductID:       lot.ProductID,
		VendorID:        lot.VendorID,
		ReceivedDate:    lot.ReceivedDate.Format("2006-01-02"),
		QtyReceived:     lot.QtyReceived,
		QtyRemaining:    lot.QtyRemaining,
		UnitCost:        lot.UnitCost,
		GoodsAmount:     lot.GoodsAmount,
		DutyAmount:      lot.DutyAmount,
		DomesticFreight: lot.DomesticFreight,
		OtherCost:       lot.OtherCost,
		WarehouseFee:    lot.WarehouseFee,
		StorageLocation: string(lot.StorageLocation),
	}
}

func optionalAmount(v *float64) costing.Amount {
	if v == nil {
		return costing.NoAmount()
	}
	return costing.AmountOf(*v)
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

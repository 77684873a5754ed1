package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// LotHandler serves lot browsing for every account and lot management for
// administrators.
type LotHandler struct {
	Lots *service.LotService
}

func NewLotHandler(lots *service.LotService) *LotHandler {
	if lots == nil {
		panic("nil service passed to NewLotHandler")
	}
	return &LotHandler{Lots: lots}
}

type lotReq struct {
	PrimeLocationName *string  `json:"prime_location_name"`
	Address           *string  `json:"address"`
	PinCode           *string  `json:"pin_code"`
	PricePerHour      *float64 `json:"price_per_hour"`
	NumberOfSpots     *int     `json:"number_of_spots"`
}

type pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
}

// List handles GET /api/parking-lots.  Query parameters: q (substring of
// name, address or pin code), available=true (only lots with a free spot),
// page and per_page.  Regular accounts only see active lots.
func (h *LotHandler) List(c echo.Context) error {
	f := repository.LotFilter{
		Query:    strings.TrimSpace(c.QueryParam("q")),
		OnlyFree: queryBool(c, "available"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "per_page", 20),
	}.Normalized()
	if role, _ := c.Get(middleware.CtxRole).(string); role != model.RoleAdmin {
		f.ActiveOnly = true
	}
	lots, total, err := h.Lots.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	pages := (total + int64(f.PageSize) - 1) / int64(f.PageSize)
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Parking lots retrieved successfully",
		"data":       lots,
		"pagination": pagination{Page: f.Page, PerPage: f.PageSize, Total: total, Pages: pages},
	})
}

// Get handles GET /api/parking-lots/:id with the lot's spots and their
// current occupants.
func (h *LotHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	lot, err := h.Lots.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Parking lot retrieved successfully", lot)
}

// Create handles POST /api/admin/parking-lots.  Every field is required.
func (h *LotHandler) Create(c echo.Context) error {
	var req lotReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	if req.PrimeLocationName == nil || req.Address == nil || req.PinCode == nil ||
		req.PricePerHour == nil || req.NumberOfSpots == nil {
		return errBadRequest("All fields are required")
	}
	lot, err := h.Lots.Create(c.Request().Context(), service.LotInput{
		PrimeLocationName: *req.PrimeLocationName,
		Address:           *req.Address,
		PinCode:           *req.PinCode,
		PricePerHour:      *req.PricePerHour,
		NumberOfSpots:     *req.NumberOfSpots,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Parking lot created successfully", lot)
}

// Update handles PUT /api/admin/parking-lots/:id.  Omitted fields are left
// unchanged; a new number_of_spots resizes the lot.
func (h *LotHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req lotReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	lot, err := h.Lots.Update(c.Request().Context(), id, service.LotPatch{
		PrimeLocationName: req.PrimeLocationName,
		Address:           req.Address,
		PinCode:           req.PinCode,
		PricePerHour:      req.PricePerHour,
		NumberOfSpots:     req.NumberOfSpots,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Parking lot updated successfully", lot)
}

// Delete handles DELETE /api/admin/parking-lots/:id.  Lots with an occupied
// spot are refused.
func (h *LotHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Lots.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Parking lot deleted successfully"})
}

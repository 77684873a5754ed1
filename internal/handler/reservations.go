package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// ReservationHandler books and releases spots.  All methods assume JWTAuth
// has run.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	if reservations == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

type reserveReq struct {
	LotID         uint64 `json:"lot_id"`
	VehicleNumber string `json:"vehicle_number"`
	Remarks       string `json:"remarks"`
}

// Create handles POST /api/reservations.  The first available spot of the
// lot (lowest id) is occupied for the caller.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	view, err := h.Reservations.Allocate(c.Request().Context(), service.AllocateInput{
		LotID:         req.LotID,
		UserID:        uid,
		VehicleNumber: req.VehicleNumber,
		Remarks:       req.Remarks,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Parking spot booked successfully", view)
}

// Release handles PUT /api/reservations/:id/release.  Only the owner's
// active reservation can be released; the cost is billed per started hour.
func (h *ReservationHandler) Release(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.Reservations.Release(c.Request().Context(), id, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Parking spot released successfully", view)
}

// List handles GET /api/reservations for the caller, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	views, err := h.Reservations.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Reservations retrieved successfully", views)
}

// AdminList handles GET /api/admin/reservations with optional limit and
// offset.
func (h *ReservationHandler) AdminList(c echo.Context) error {
	views, err := h.Reservations.ListAll(c.Request().Context(), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Reservations retrieved successfully", views)
}

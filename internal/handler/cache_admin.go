package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
)

// CacheHandler exposes the response cache to administrators.
type CacheHandler struct {
	Cache *middleware.ResponseCache
}

// Status handles GET /api/admin/cache/status.
func (h *CacheHandler) Status(c echo.Context) error {
	return respond(c, http.StatusOK, "Cache status retrieved successfully", h.Cache.Status(c.Request().Context()))
}

// Clear handles POST /api/admin/cache/clear.
func (h *CacheHandler) Clear(c echo.Context) error {
	n, err := h.Cache.Clear(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cache cleared successfully", "cleared_items": n, "status": "success"})
}

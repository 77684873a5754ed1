package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// SearchHandler exposes the admin and user search endpoints.  Both take
// ?type= and ?query=.
type SearchHandler struct {
	Search *service.SearchService
}

func NewSearchHandler(s *service.SearchService) *SearchHandler {
	return &SearchHandler{Search: s}
}

// Admin handles GET /api/admin/search.
func (h *SearchHandler) Admin(c echo.Context) error {
	typ := c.QueryParam("type")
	res, err := h.Search.AdminSearch(c.Request().Context(), typ, c.QueryParam("query"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Search completed successfully", "type": typ, "data": res})
}

// User handles GET /api/search.
func (h *SearchHandler) User(c echo.Context) error {
	typ := c.QueryParam("type")
	if typ == "" {
		typ = service.SearchLots
	}
	res, err := h.Search.UserSearch(c.Request().Context(), typ, c.QueryParam("query"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Search completed successfully", "type": typ, "data": res})
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/realtime"
)

// Availability handles GET /api/ws/availability by upgrading to a
// websocket that receives lot availability updates.
func Availability(hub *realtime.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		return hub.ServeWS(c.Response(), c.Request())
	}
}

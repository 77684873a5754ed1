package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is the liveness probe used by load balancers.  It returns a plain
// text "ok" without touching any dependency.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler reports on the dependencies behind the API.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client // nil when Redis is not configured
}

// Check pings MySQL and Redis.  A down database makes the service
// unhealthy; a down Redis only degrades it.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	database := "up"
	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		database, status, code = "down", "unhealthy", http.StatusServiceUnavailable
	}
	cache := "disabled"
	if h.Redis != nil {
		cache = "up"
		if h.Redis.Ping(ctx).Err() != nil {
			cache = "down"
			if code == http.StatusOK {
				status = "degraded"
			}
		}
	}
	return c.JSON(code, echo.Map{
		"message":  "API is running",
		"status":   status,
		"database": database,
		"redis":    cache,
	})
}

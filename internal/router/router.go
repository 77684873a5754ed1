package router // package router defines how HTTP routes are registered for the API

import (
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Swati9798/Vehicle-Parking/internal/handler"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/realtime"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
)

// Deps carries everything the routes need.  RateLimit may be nil.
type Deps struct {
	JWTSecret string
	Users     middleware.UserLookup
	Revoked   repository.RevocationStore
	Cache     *middleware.ResponseCache
	RateLimit echo.MiddlewareFunc
	Hub       *realtime.Hub

	Auth         *handler.AuthHandler
	Health       *handler.HealthHandler
	Lots         *handler.LotHandler
	Reservations *handler.ReservationHandler
	Analytics    *handler.AnalyticsHandler
	Search       *handler.SearchHandler
	Tasks        *handler.TaskHandler
	CacheAdmin   *handler.CacheHandler
}

// New builds the Echo instance with the shared middleware stack, the error
// handler and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d)
	RegisterUser(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated health checks.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	if h != nil {
		e.GET("/api/health", h.Check)
	}
}

func authMiddleware(d Deps) echo.MiddlewareFunc {
	return middleware.JWTAuth(d.JWTSecret, d.Users, d.Revoked)
}

// RegisterAuth registers /api/auth.  Register, login and refresh are public
// and rate limited; the rest require a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth")
	if d.RateLimit != nil {
		g.Use(d.RateLimit)
	}
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)

	jwt := authMiddleware(d)
	g.POST("/logout", d.Auth.Logout, jwt)
	g.GET("/profile", d.Auth.GetProfile, jwt)
	g.PUT("/profile", d.Auth.UpdateProfile, jwt, d.invalidateUser())
	g.GET("/whoami", d.Auth.WhoAmI, jwt)
}

// RegisterUser registers the endpoints open to any active account.
func RegisterUser(e *echo.Echo, d Deps) {
	g := e.Group("/api", authMiddleware(d), middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	lots := d.Cache.Middleware(middleware.ScopeLots)
	mine := d.Cache.Middleware(middleware.ScopeUser)

	g.GET("/parking-lots", d.Lots.List, lots)
	g.GET("/parking-lots/:id", d.Lots.Get, lots)
	g.GET("/search", d.Search.User, lots)

	g.POST("/reservations", d.Reservations.Create)
	g.GET("/reservations", d.Reservations.List, mine)
	g.PUT("/reservations/:id/release", d.Reservations.Release)
	g.GET("/user/summary", d.Analytics.UserSummary, mine)

	g.POST("/export/csv", d.Tasks.ExportCSV)
	g.GET("/export/status/:id", d.Tasks.ExportStatus)
	g.GET("/export/download/:filename", d.Tasks.Download)

	if d.Hub != nil {
		e.GET("/api/ws/availability", handler.Availability(d.Hub),
			middleware.TokenFromQuery("token"), authMiddleware(d))
	}
}

// RegisterAdmin registers /api/admin.  Every route requires the admin role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/api/admin", authMiddleware(d), middleware.RequireRole(model.RoleAdmin))

	admin := d.Cache.Middleware(middleware.ScopeAdmin)

	g.POST("/parking-lots", d.Lots.Create)
	g.PUT("/parking-lots/:id", d.Lots.Update)
	g.DELETE("/parking-lots/:id", d.Lots.Delete)

	g.GET("/dashboard", d.Analytics.Dashboard, admin)
	g.GET("/users", d.Analytics.AdminUsers, admin)
	g.GET("/reservations", d.Reservations.AdminList, admin)
	g.GET("/summary", d.Analytics.AdminSummary, admin)
	g.GET("/search", d.Search.Admin, admin)

	g.POST("/tasks/trigger-reminders", d.Tasks.TriggerReminders)
	g.POST("/tasks/trigger-reports", d.Tasks.TriggerReports)
	g.GET("/tasks/status/:id", d.Tasks.TaskStatus)
	g.POST("/test-email", d.Tasks.TestEmail)
	g.POST("/send-mail", d.Tasks.SendMail)

	g.GET("/cache/status", d.CacheAdmin.Status)
	g.POST("/cache/clear", d.CacheAdmin.Clear)
}

// invalidateUser drops the caller's cached views after a successful
// profile change, and the admin listings that show accounts.
func (d Deps) invalidateUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status < 300 {
				uid, _ := c.Get(middleware.CtxUserID).(uint64)
				if err := d.Cache.Invalidate(c.Request().Context(), middleware.ScopeAdmin, middleware.UserScope(uid)); err != nil {
					log.Printf("cache: invalidate after profile update: %v", err)
				}
			}
			return nil
		}
	}
}

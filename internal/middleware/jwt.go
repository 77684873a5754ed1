package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/utils"
)

// UserLookup loads the account named by a token's subject.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// rejects revoked token ids and deactivated accounts, and injects the
// account into the request context.  Handlers read it via c.Get("user_id"),
// c.Get("role") and c.Get("user").  The role is taken from the stored
// account, not the token, so a role change applies immediately.
func JWTAuth(secret string, users UserLookup, revoked repository.RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired token"})
			}

			ctx := c.Request().Context()
			if claims.JTI != "" && revoked != nil {
				gone, err := revoked.IsRevoked(ctx, claims.JTI)
				if err != nil {
					log.Printf("auth: revocation check failed: %v", err)
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Authentication temporarily unavailable"})
				}
				if gone {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token has been revoked"})
				}
			}

			u, err := users.GetByID(ctx, claims.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid or expired token"})
			}
			if err != nil {
				return err
			}
			if !u.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Account is deactivated"})
			}

			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			c.Set(CtxJTI, claims.JTI)
			c.Set(CtxTokenExp, claims.Exp)
			c.Set(CtxUser, &u)
			return next(c)
		}
	}
}

// TokenFromQuery copies the access token from ?param= into the
// Authorization header when the header is absent.  It is meant for
// websocket handshakes, which browsers send without custom headers.
func TokenFromQuery(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.Header.Get("Authorization") == "" {
				if tok := strings.TrimSpace(c.QueryParam(param)); tok != "" {
					r.Header.Set("Authorization", "Bearer "+tok)
				}
			}
			return next(c)
		}
	}
}

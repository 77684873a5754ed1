package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/guregu/null.v4"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/utils"
)

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Revoked repository.RevocationStore
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, revoked repository.RevocationStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Revoked: revoked}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
	AllSessions  bool   `json:"all_sessions"`
}
type profileReq struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
}

type userPart struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	DisplayName null.String `json:"display_name"`
	Role        string      `json:"role"`
	IsAdmin     bool        `json:"is_admin"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}
type authResp struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             userPart  `json:"user"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID: u.ID, Username: u.Username, Email: u.Email, DisplayName: u.DisplayName,
		Role: u.Role, IsAdmin: u.IsAdmin(), IsActive: u.IsActive, CreatedAt: u.CreatedAt,
	}
}

// issue signs an access token and stores a fresh refresh token hash.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Raw, // raw back to client
		TokenType:        "Bearer",
		ExpiresAt:        access.Exp,
		RefreshExpiresAt: refresh.Exp,
		User:             toUserPart(u),
	}, nil
}

// Register creates a regular account and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errBadRequest("All fields are required")
	}
	if !strings.Contains(req.Email, "@") {
		return errBadRequest("Invalid email address")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{Username: req.Username, Email: req.Email, Role: model.RoleUser}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		return err
	}
	u.CreatedAt = time.Now().UTC()

	resp, err := h.issue(ctx, u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Registration successful", resp)
}

// Login verifies username and password and returns a new token pair.
// Deactivated accounts are refused with the same message as bad
// credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return errBadRequest("Username and password required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword("", req.Password)
		return errUnauthorized("Invalid username or password")
	}
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || !u.IsActive {
		return errUnauthorized("Invalid username or password")
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login successful - Welcome "+u.Role+"!", resp)
}

// Refresh validates the refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errBadRequest("refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return errUnauthorized("Invalid refresh token")
	}
	if err != nil {
		return err
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return err
	}

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return errUnauthorized("Invalid refresh token")
	}
	if err != nil {
		return err
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Token refreshed successfully", resp)
}

// Logout revokes the presented access token until it would have expired.
// A refresh_token in the body is revoked as well; all_sessions revokes
// every refresh token of the account.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req logoutReq
	_ = c.Bind(&req) // body is optional

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	jti, _ := c.Get(middleware.CtxJTI).(string)
	exp, _ := c.Get(middleware.CtxTokenExp).(time.Time)
	if jti != "" && h.Revoked != nil {
		if err := h.Revoked.Revoke(ctx, jti, exp); err != nil {
			return err
		}
	}

	switch {
	case req.AllSessions:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return err
		}
	case strings.TrimSpace(req.RefreshToken) != "":
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

// GetProfile returns the caller's account as stored.
func (h *AuthHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if errors.Is(err, repository.ErrNotFound) {
		return errNotFound("User not found")
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully", u)
}

// UpdateProfile changes email and display name only.  Any other field in
// the body is rejected.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bindStrict(c, &req); err != nil {
		return err
	}

	var upd repository.ProfileUpdate
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return errBadRequest("Invalid email address")
		}
		upd.Email = null.StringFrom(email)
	}
	if req.DisplayName != nil {
		upd.DisplayName = null.StringFrom(strings.TrimSpace(*req.DisplayName))
	}

	ctx := c.Request().Context()
	if err := h.Users.UpdateProfile(ctx, uid, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("User not found")
		}
		return err
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated successfully", u)
}

// WhoAmI reports the account the token resolved to.
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	u, ok := c.Get(middleware.CtxUser).(*model.User)
	if !ok || u == nil {
		return errUnauthorized("Authentication required")
	}
	return respond(c, http.StatusOK, "Current user retrieved successfully", echo.Map{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"role":      u.Role,
		"is_admin":  u.IsAdmin(),
		"is_active": u.IsActive,
	})
}

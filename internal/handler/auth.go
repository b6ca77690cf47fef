package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/validation"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	Auth   *service.AuthService
	Cookie config.CookieConfig
}

func NewAuthHandler(auth *service.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookie: cookie}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type idResp struct {
	ID uint64 `json:"id"`
}

// userResp is the public view of a user; it has no password field.
type userResp struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func badBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
}

// Register: validate, create the user and set the token cookies.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	if err := validation.Validate(validation.RegisterRules, map[string]*string{
		"email":     &req.Email,
		"firstName": &req.FirstName,
		"lastName":  &req.LastName,
		"password":  &req.Password,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Auth.Register(ctx, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	h.setTokenCookies(c, s.Tokens)
	return c.JSON(http.StatusCreated, idResp{ID: s.UserID})
}

// Login: verify credentials and set a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	if err := validation.Validate(validation.LoginRules, map[string]*string{
		"email":    &req.Email,
		"password": &req.Password,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setTokenCookies(c, s.Tokens)
	return c.JSON(http.StatusOK, idResp{ID: s.UserID})
}

// Self returns the authenticated user without the password.
func (h *AuthHandler) Self(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return service.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Auth.Self(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(u))
}

// Refresh rotates the token pair named by the refresh cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, ok := middleware.RefreshClaims(c)
	if !ok {
		return service.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Auth.Refresh(ctx, claims)
	if err != nil {
		return err
	}
	h.setTokenCookies(c, s.Tokens)
	return c.JSON(http.StatusOK, idResp{ID: s.UserID})
}

// Logout revokes the refresh record, denylists the access token and clears
// both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	access, ok := middleware.AccessClaims(c)
	if !ok {
		return service.ErrUnauthorized
	}
	refresh, ok := middleware.RefreshClaims(c)
	if !ok {
		return service.ErrUnauthorized
	}
	uid, err := access.UserID()
	if err != nil {
		return service.ErrUnauthorized
	}
	// Both tokens must belong to the same user.
	if refresh.Subject != access.Subject {
		return service.ErrUnauthorized
	}
	rid, err := refresh.RecordID()
	if err != nil {
		return service.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	in := service.LogoutInput{
		UserID:      uid,
		RecordID:    rid,
		AccessToken: middleware.AccessRaw(c),
	}
	if access.ExpiresAt != nil {
		in.AccessExp = access.ExpiresAt.Time
	}
	if err := h.Auth.Logout(ctx, in); err != nil {
		return err
	}
	h.clearTokenCookies(c)
	return c.JSON(http.StatusOK, echo.Map{})
}

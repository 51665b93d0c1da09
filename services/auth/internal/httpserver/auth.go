package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/respond"
	"github.com/raceparts/raceparts/pkg/tokens"
	"github.com/raceparts/raceparts/services/auth/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return respond.Error(c, http.StatusBadRequest, "A valid email and a password of at least 8 characters are required.")
		case errors.Is(err, service.ErrEmailTaken):
			return respond.Error(c, http.StatusBadRequest, "Email is already registered.")
		default:
			l.Error("register_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server Error")
		}
	}

	token, exp, err := h.Svc.IssueToken(user)
	if err != nil {
		l.Error("token_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}
	c.SetCookie(tokens.CreateCookie(token, exp))

	return respond.OK(c, http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return respond.Error(c, http.StatusUnauthorized, "Incorrect email or password.")
		}
		l.Error("login_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	token, exp, err := h.Svc.IssueToken(user)
	if err != nil {
		l.Error("token_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}
	c.SetCookie(tokens.CreateCookie(token, exp))

	l.Info("user_logged_in", "user_id", user.ID)
	return respond.OK(c, http.StatusOK, user)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie())
	return respond.Message(c, http.StatusOK, "Logged out.")
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	user, err := h.Svc.Profile(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "User not found.")
		}
		l.Error("profile_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, user)
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	var in service.ProfileInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateProfile(ctx, id.UserID, in)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "User not found.")
		}
		l.Error("profile_update_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, user)
}

package user

import (
	"errors"
	"net/http"
	"time"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Handler struct {
	service      ServiceInterface
	cookieSecure bool
	logger       *zap.Logger
}

// NewHandler creates a new admin login handler. cookieSecure marks the session
// cookie HTTPS-only.
func NewHandler(service ServiceInterface, cookieSecure bool, logger *zap.Logger) *Handler {
	return &Handler{service: service, cookieSecure: cookieSecure, logger: logger}
}

type loginData struct {
	Username string
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     web.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// LoginForm handles GET /admin-login.
func (h *Handler) LoginForm(c echo.Context) error {
	if web.SessionFrom(c).Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin-dashboard")
	}
	return web.Render(c, http.StatusOK, "login", loginData{})
}

// Login handles POST /admin-login.
func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return web.RenderNotice(c, http.StatusBadRequest, "login", "invalid_input", loginData{})
	}

	auth, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			h.logger.Info("Rejected admin login", zap.String("username", req.Username), zap.String("ip", c.RealIP()))
			return web.RenderNotice(c, http.StatusUnauthorized, "login", "invalid_credentials", loginData{Username: req.Username})
		}
		h.logger.Error("Admin login failed", zap.Error(err))
		return web.RenderNotice(c, http.StatusInternalServerError, "login", "failed", loginData{Username: req.Username})
	}

	c.SetCookie(h.sessionCookie(auth.AccessToken, auth.ExpiresAt))
	h.logger.Info("Admin logged in", zap.String("username", auth.User.Username))
	return web.Redirect(c, "/admin-dashboard", "logged_in")
}

// Logout handles POST /logout.
func (h *Handler) Logout(c echo.Context) error {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return web.Redirect(c, "/", "logged_out")
}

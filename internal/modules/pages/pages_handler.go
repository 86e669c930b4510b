// Package pages serves the public marketing pages, the language preference and
// the health check.
package pages

import (
	"context"
	"net/http"
	"time"

	"parcel-courier/internal/web"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Solution is one service offering shown on the solutions pages.
type Solution struct {
	Slug string
}

// Solutions lists the offerings in display order. Titles and summaries come
// from the catalog keys solution.<slug>.title and solution.<slug>.summary.
var Solutions = []Solution{
	{Slug: "express"},
	{Slug: "freight"},
	{Slug: "international"},
	{Slug: "warehousing"},
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	catalog      *web.Catalog
	db           Pinger
	cookieSecure bool
	logger       *zap.Logger
}

func NewHandler(catalog *web.Catalog, db Pinger, cookieSecure bool, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, db: db, cookieSecure: cookieSecure, logger: logger}
}

// Home handles GET /.
func (h *Handler) Home(c echo.Context) error {
	return web.Render(c, http.StatusOK, "home", nil)
}

// About handles GET /about.
func (h *Handler) About(c echo.Context) error {
	return web.Render(c, http.StatusOK, "about", nil)
}

// Solutions handles GET /solutions.
func (h *Handler) Solutions(c echo.Context) error {
	return web.Render(c, http.StatusOK, "solutions", Solutions)
}

// Solution handles GET /solutions/:slug.
func (h *Handler) Solution(c echo.Context) error {
	slug := c.Param("slug")
	for _, s := range Solutions {
		if s.Slug == slug {
			return web.Render(c, http.StatusOK, "solution", s)
		}
	}
	return web.RenderNotice(c, http.StatusNotFound, "error", "not_found", nil)
}

// LanguageForm handles GET /language.
func (h *Handler) LanguageForm(c echo.Context) error {
	return web.Render(c, http.StatusOK, "language", nil)
}

// SetLanguage handles POST /language. The choice is kept in a cookie for a year.
func (h *Handler) SetLanguage(c echo.Context) error {
	lang := c.FormValue("lang")
	if !h.catalog.Has(lang) {
		return web.Redirect(c, "/language", "invalid_input")
	}
	c.SetCookie(&http.Cookie{
		Name:     web.LangCookie,
		Value:    lang,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return web.Redirect(c, "/language", "language_saved")
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Package web renders the server-side pages and carries the per-request view
// context (language, session, notices).
package web

import (
	"net/http"
	"net/url"

	"parcel-courier/internal/models"

	"github.com/labstack/echo/v4"
)

// Context keys and cookies shared with the middleware.
const (
	SessionKey    = "session"
	LangKey       = "lang"
	LangCookie    = "lang"
	SessionCookie = "session"
)

// Page is the data every template receives.
type Page struct {
	Name    string
	Lang    string
	Path    string
	Notice  string
	Error   string
	Session models.SessionUser
	Data    any
}

// SessionFrom returns the session attached by the session middleware.
func SessionFrom(c echo.Context) models.SessionUser {
	if s, ok := c.Get(SessionKey).(models.SessionUser); ok {
		return s
	}
	return models.SessionUser{}
}

// LangFrom returns the negotiated language of the request.
func LangFrom(c echo.Context) string {
	if l, ok := c.Get(LangKey).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}

func newPage(c echo.Context, name string, data any) Page {
	return Page{
		Name:    name,
		Lang:    LangFrom(c),
		Path:    c.Request().URL.RequestURI(),
		Notice:  c.QueryParam("notice"),
		Session: SessionFrom(c),
		Data:    data,
	}
}

// Render writes the named page.
func Render(c echo.Context, status int, name string, data any) error {
	return c.Render(status, name, newPage(c, name, data))
}

// RenderNotice writes the named page with notice set, ignoring the query string.
func RenderNotice(c echo.Context, status int, name, notice string, data any) error {
	p := newPage(c, name, data)
	p.Notice = notice
	return c.Render(status, name, p)
}

// RenderError writes the named page with an inline error message. Pages show it
// together with a retry link back to the current URL.
func RenderError(c echo.Context, status int, name, message string, data any) error {
	p := newPage(c, name, data)
	p.Error = message
	return c.Render(status, name, p)
}

// Redirect sends a 303 to target, optionally with a notice key to display there.
func Redirect(c echo.Context, target, notice string) error {
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

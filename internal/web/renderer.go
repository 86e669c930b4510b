package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"parcel-courier/internal/models"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer over the embedded page templates. Every page
// defines a "content" block executed inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer(catalog *Catalog) (*Renderer, error) {
	funcs := template.FuncMap{
		"t": catalog.T,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(models.DateLayout)
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"statuses": func() []models.ShipmentStatus { return models.ShipmentStatuses },
		"locales":  catalog.Locales,
		"slug":     func(s models.ShipmentStatus) string { return strings.ReplaceAll(string(s), " ", "-") },
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("web.NewRenderer layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web.NewRenderer: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("web.NewRenderer %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Localize negotiates the request language and stores it under LangKey.
func Localize(catalog *Catalog) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var pref string
			if cookie, err := c.Cookie(LangCookie); err == nil {
				pref = cookie.Value
			}
			c.Set(LangKey, catalog.Match(pref, c.Request().Header.Get("Accept-Language")))
			return next(c)
		}
	}
}

package handlers

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opst/solarscan/pkg/buildtime"
	"github.com/opst/solarscan/pkg/detector"
)

//go:embed templates/*.html
var templates embed.FS

// Renderer renders embedded html templates.
type Renderer struct {
	t *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		t: template.Must(template.ParseFS(templates, "templates/*.html")),
	}
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.t.ExecuteTemplate(w, name, data)
}

type indexPage struct {
	Version     string
	ModelLoaded bool
	ModelPath   string
}

func IndexHandler(handle *detector.Handle) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := indexPage{Version: buildtime.VERSION()}
		if m, ok := handle.Get(); ok {
			page.ModelLoaded = true
			page.ModelPath = m.Path
		}
		return c.Render(http.StatusOK, "index.html", page)
	}
}

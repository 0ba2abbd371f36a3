package web

import (
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// UI serves the dashboard page that fronts the generation API. The service
// stays functional without the templates; the page is a convenience.
type UI struct {
	tpl *template.Template
}

func NewUI() *UI {
	tpl, err := template.ParseGlob(filepath.Join("web", "templates", "*.html"))
	if err != nil {
		log.Warn().Err(err).Msg("dashboard templates not found, UI disabled")
		return &UI{}
	}
	return &UI{tpl: tpl}
}

func (u *UI) Index(w http.ResponseWriter, r *http.Request) {
	if u.tpl == nil {
		http.NotFound(w, r)
		return
	}
	_ = u.tpl.ExecuteTemplate(w, "index.html", nil)
}

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames lists the templates rendered inside the shared layout
var pageNames = []string{"landing", "upload", "processing", "review", "success", "error"}

type pageSet struct {
	pages map[string]*template.Template
	print *template.Template
}

func parsePages(funcs template.FuncMap) (*pageSet, error) {
	set := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		set.pages[name] = t
	}
	t, err := template.New("print.html").Funcs(funcs).ParseFS(templateFS, "templates/print.html")
	if err != nil {
		return nil, fmt.Errorf("parse print template: %w", err)
	}
	set.print = t
	return set, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	currency := s.cfg.Export.Currency
	if currency == "" {
		currency = "INR"
	}
	return template.FuncMap{
		"money": func(v int64) string {
			return currency + " " + humanize.Comma(v)
		},
		"rate": func(approved, claimed int64) string {
			return model.FormatRate(model.ApprovalRate(approved, claimed))
		},
	}
}

// render executes a page template inside the shared layout
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	t, ok := s.pages.pages[name]
	if !ok {
		s.log.Error("unknown template", zap.String("template", name))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.execute(w, status, t, data)
}

func (s *Server) execute(w http.ResponseWriter, status int, t *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.log.Error("template execution failed", zap.String("template", t.Name()), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows an error page for a browser request
func (s *Server) renderError(w http.ResponseWriter, err error) {
	appErr := classify(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("dev", appErr.DevMessage), zap.Error(appErr.Err))
	}
	s.render(w, appErr.StatusCode, "error", pageData{
		Brand:  s.brand(),
		Title:  http.StatusText(appErr.StatusCode),
		Status: appErr.StatusCode,
		Error:  appErr.ClientMessage,
	})
}

func (s *Server) brand() string {
	if s.cfg.Export.Brand == "" {
		return "ClaimAdjudicate.ai"
	}
	return s.cfg.Export.Brand
}

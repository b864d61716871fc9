// Package web serves the claim review UI and its JSON API.
package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/llm"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/pipeline"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"github.com/ppiankov/claimadjudicate/internal/worker"
	"go.uber.org/zap"
)

// Deps are the collaborators the server needs
type Deps struct {
	Config     *model.Config
	Store      *session.Store
	Pipeline   *pipeline.Pipeline
	Intake     *intake.Intake
	Summarizer *llm.Summarizer // optional
	Limiter    *worker.Limiter // optional, built from server config when nil
	Logger     *zap.Logger
}

// Server holds the HTTP handlers
type Server struct {
	cfg        *model.Config
	store      *session.Store
	pipeline   *pipeline.Pipeline
	intake     *intake.Intake
	summarizer *llm.Summarizer
	limiter    *worker.Limiter
	log        *zap.Logger
	pages      *pageSet
	production bool
}

// NewServer wires the handlers and parses the embedded templates
func NewServer(d Deps) (*Server, error) {
	if d.Config == nil || d.Store == nil || d.Pipeline == nil {
		return nil, errors.New("web: config, store and pipeline are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Intake == nil {
		d.Intake = intake.New(d.Config.Server.MaxUploadBytes)
	}
	if d.Limiter == nil {
		d.Limiter = worker.NewLimiter(d.Config.Server.RateLimitRPS, d.Config.Server.RateLimitBurst)
	}

	s := &Server{
		cfg:        d.Config,
		store:      d.Store,
		pipeline:   d.Pipeline,
		intake:     d.Intake,
		summarizer: d.Summarizer,
		limiter:    d.Limiter,
		log:        d.Logger,
		production: d.Config.App.Env == "production",
	}

	pages, err := parsePages(s.templateFuncs())
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(Logging(s.log))
	router.Use(s.Recover)
	router.Use(s.RateLimit(s.limiter))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "ok", map[string]int{"sessions": s.store.Len()})
	})

	router.Group(func(r chi.Router) {
		r.Use(s.Sessions)

		r.Get("/", s.handlePage)
		r.Route("/claims", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/upload", s.handleUpload)
			r.Post("/review", s.handleEnterReview)
			r.Post("/items/confirm-all", s.handleConfirmAll)
			r.Post("/items/{id}/amount", s.handleAmount)
			r.Post("/items/{id}/confirm", s.handleConfirm)
			r.Post("/submit", s.handleSubmit)
			r.Post("/new", s.handleNewClaim)
			r.Post("/home", s.handleHome)

			r.Get("/print", s.handlePrint)
			r.Get("/export.{format}", s.handleExportDownload)
		})
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(s.Sessions)

		r.Route("/v1/session", func(r chi.Router) {
			r.Get("/", s.apiGetSession)
			r.Post("/start", s.apiStart)
			r.Post("/upload", s.apiUpload)
			r.Post("/review", s.apiEnterReview)
			r.Patch("/items/{id}", s.apiPatchItem)
			r.Post("/submit", s.apiSubmit)
			r.Post("/new", s.apiNewClaim)
			r.Post("/home", s.apiHome)
			r.Get("/export", s.apiExport)
		})
	})

	return router
}

// exportOptions returns the export settings for a session's decision
func (s *Server) exportOptions(sess *session.Session) export.Options {
	opts := export.OptionsFromConfig(s.cfg.Export)
	opts.Note = sess.Note()
	return opts
}

package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/local/logoproxy/internal/config"
	mpkg "github.com/local/logoproxy/internal/metrics"
	"github.com/local/logoproxy/internal/statuscheck"
	"github.com/local/logoproxy/internal/upstream"
)

// Server wires the HTTP surface: the generation API, health, metrics and the
// dashboard page.
type Server struct {
	handler *Handler
	checker *statuscheck.Checker
	ui      *UI
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		handler: NewHandler(cfg.Upstream),
		checker: statuscheck.New(statuscheck.Options{
			BaseURL: cfg.Upstream.BaseURL,
			APIKey:  cfg.Upstream.APIKey,
		}),
		ui: NewUI(),
	}
}

// Router builds the chi router. Every route, error responses included, goes
// through the permissive CORS middleware so browser frontends on any origin
// can call the API; OPTIONS preflights are answered by the middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	// The cors middleware only injects headers for allowed methods with an
	// Origin present; the allow-origin header must be on every branch, the
	// 405 fallback included.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	contentVariant := upstream.Variant{
		Name:        "generate_content",
		Model:       s.handler.cfg.ContentModel,
		Shape:       upstream.ShapeContent,
		WrapDataURI: true,
	}
	predictVariant := upstream.Variant{
		Name:  "predict",
		Model: s.handler.cfg.PredictModel,
		Shape: upstream.ShapePrediction,
	}

	r.Post("/api/generate", s.handler.Generate(contentVariant))
	r.Post("/api/generate/imagen", s.handler.Generate(predictVariant))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", mpkg.Handler())
	r.Get("/", s.ui.Index)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary := s.checker.Summary(r.Context())
	status := http.StatusOK
	if !summary.Config.OK {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(summary)
}

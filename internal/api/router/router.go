package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hearthlabs/hearth-assistant/internal/http/handlers"
	httpmiddleware "github.com/hearthlabs/hearth-assistant/internal/http/middleware"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Interactions       *handlers.InteractionHandler
	Privacy            *handlers.PrivacyHandler
	Audit              *handlers.AuditHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	CaptureRateLimit   float64
	CaptureRateBurst   int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(httpmiddleware.UserContext())

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Device and consumer API
	r.Route("/v1", func(v1 chi.Router) {
		if cfg.CaptureRateLimit > 0 {
			v1.Use(httpmiddleware.RateLimit(cfg.CaptureRateLimit, cfg.CaptureRateBurst))
		}

		if cfg.Interactions != nil {
			v1.Post("/interactions", cfg.Interactions.Capture)
			v1.Route("/users/{userID}", func(user chi.Router) {
				user.Get("/summary", cfg.Interactions.Summary)
				user.Delete("/data", cfg.Interactions.PurgeData)
				user.Put("/retention", cfg.Interactions.ConfigureRetention)
				if cfg.Privacy != nil {
					user.Put("/privacy-level", cfg.Privacy.ConfigureLevel)
					user.Get("/privacy-report", cfg.Privacy.Report)
				}
			})
		}
		if cfg.Privacy != nil {
			v1.Route("/privacy", func(p chi.Router) {
				p.Post("/filter", cfg.Privacy.FilterInteraction)
				p.Post("/anonymize", cfg.Privacy.Anonymize)
				p.Post("/validate", cfg.Privacy.Validate)
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.Interactions != nil {
				admin.Post("/sources", cfg.Interactions.RegisterSource)
			}
			if cfg.Audit != nil {
				admin.Get("/audit", cfg.Audit.Query)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
}

type Handlers struct {
	Event     EventHandler
	Geofence  GeofenceHandler
	Summary   SummaryHandler
	Job       JobHandler
	Dashboard DashboardHandler
	Stream    StreamHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "site-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource cannot set headers, so the stream also accepts ?jwt=
		if h.Stream != nil {
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
				r.Use(middleware.AuthRequired)
				r.Use(middleware.AdminOnly)
				r.Get("/attendance/events/stream", h.Stream.Events)
			})
		}

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Route("/events", func(r chi.Router) {
					r.With(chiMiddleware.AllowContentType("application/json")).Post("/", h.Event.Create)

					// Admin only
					r.With(middleware.AdminOnly).Get("/", h.Event.List)
				})

				r.Route("/geofence", func(r chi.Router) {
					r.Get("/nearest", h.Geofence.Nearest)
					r.Get("/sites/{siteID}", h.Geofence.CheckSite)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/summaries", h.Summary.List)
					r.Get("/summaries/export", h.Summary.Export)
					r.With(chiMiddleware.AllowContentType("application/json")).
						Post("/jobs/daily-aggregation", h.Job.RunDailyAggregation)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Get("/", h.Dashboard.GetDashboard)
				r.Get("/kpis", h.Dashboard.GetKPIs)
				r.Get("/employee-performance", h.Dashboard.GetEmployeePerformance)
				r.Get("/daily-trend", h.Dashboard.GetDailyTrend)
			})
		})
	})
	return r
}

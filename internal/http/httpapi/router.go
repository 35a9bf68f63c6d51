package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"brandify/internal/http/handlers"
	"brandify/internal/infra"
	"brandify/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/transforms", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/", app.CreateTransform)
		r.Get("/{id}", app.GetTransform)
		r.Post("/{id}/retry", app.RetryTransform)
		r.Delete("/{id}", app.DiscardTransform)
		r.Get("/{id}/events", app.TransformEvents)
	})

	return r
}

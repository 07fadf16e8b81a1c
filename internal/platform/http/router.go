package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faeln1/go-discord-observer/internal/app/controllers"
	"github.com/faeln1/go-discord-observer/internal/platform/middleware"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const (
	serviceName    = "discord-observer"
	serviceVersion = "0.1.0"
	checkTimeout   = 3 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Logger   logger.Logger
	Gatherer prometheus.Gatherer
	// Checks são executados em /health; uma falha devolve 503.
	Checks map[string]HealthCheck
	// Guilds conta as guilds observadas, exibido em /.
	Guilds           func(ctx context.Context) int
	RegistrationCtrl *controllers.RegistrationController
	OpsToken         string
}

// NewRouter serves the operational endpoints: /, /health, /metrics and the
// registration admin routes.
func NewRouter(cfg RouterConfig) stdhttp.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop
	}
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))

	r.Get("/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		guilds := 0
		if cfg.Guilds != nil {
			guilds = cfg.Guilds(r.Context())
		}
		writeJSON(w, stdhttp.StatusOK, map[string]any{
			"status":  "ok",
			"name":    serviceName,
			"version": serviceVersion,
			"guilds":  map[string]any{"count": guilds},
		})
	})

	r.Get("/health", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		status, results := runChecks(r.Context(), cfg.Checks)
		code := stdhttp.StatusOK
		if status != "ok" {
			code = stdhttp.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{"status": status, "checks": results})
	})

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.With(middleware.BearerToken(cfg.OpsToken)).
		Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// As rotas de registro criam e alteram canais; sem token não são montadas.
	if ctrl := cfg.RegistrationCtrl; ctrl != nil && cfg.OpsToken != "" {
		r.Route("/registrations", func(r chi.Router) {
			r.Use(middleware.BearerToken(cfg.OpsToken))
			r.Get("/", ctrl.List)
			r.Get("/{guildID}", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
				ctrl.Find(w, r, chi.URLParam(r, "guildID"))
			})
			r.Post("/{guildID}/resolve", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
				ctrl.Resolve(w, r, chi.URLParam(r, "guildID"))
			})
			r.Delete("/{guildID}", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
				ctrl.Delete(w, r, chi.URLParam(r, "guildID"))
			})
		})
	}

	r.NotFound(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		writeJSON(w, stdhttp.StatusNotFound, map[string]string{"error": "endpoint not found"})
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		writeJSON(w, stdhttp.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}

func runChecks(ctx context.Context, checks map[string]HealthCheck) (string, map[string]string) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(map[string]string, len(checks))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[name](cctx)
		cancel()
		if err != nil {
			status = "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	return status, results
}

func writeJSON(w stdhttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

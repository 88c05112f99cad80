package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/patient-ledger/internal/host"
)

type RouterConfig struct {
	Runtime *host.Runtime
	Checks  []HealthCheck
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/methods", listMethodsHandler(cfg.Runtime))
	r.Post("/view/{method}", invokeHandler(cfg.Runtime, host.KindView))
	r.Post("/call/{method}", invokeHandler(cfg.Runtime, host.KindCall))

	return r
}

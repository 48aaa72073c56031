package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает маршруты API перевалов.
func NewRouter(h *PerevalHandler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/submitData", h.SubmitData)
	r.Get("/submitData/{id}", h.GetPereval)
	r.Patch("/submitData/{id}", h.UpdatePereval)
	r.Get("/submitDataByEmail", h.ListByEmail)

	return r
}

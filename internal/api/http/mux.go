package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
)

// NewMux creates router for app's http server.
// metricsHandler is optional.
func NewMux(
	service Service,
	defaultVariant app.Variant,
	timeout time.Duration,
	metricsHandler http.Handler,
	l logrus.FieldLogger,
) http.Handler {
	getOrg := func(r *http.Request) string {
		return chi.URLParam(r, "org")
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		NewLoggingMiddleware(l),
	)

	r.Route("/contributors/{org}", func(r chi.Router) {
		r.Use(NewTimeoutMiddleware(timeout))
		r.Get("/", NewContributorsHandler(getOrg, service, defaultVariant, l))
		r.Get("/progress", NewProgressHandler(getOrg, service, defaultVariant, l))
	})
	r.Get("/variants", func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(app.Variants()))
		for _, v := range app.Variants() {
			names = append(names, v.String())
		}
		w.Header().Set("Content-type", "application/json; charset=utf-8")
		_ = jsoniter.ConfigFastest.NewEncoder(w).Encode(names)
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	return r
}

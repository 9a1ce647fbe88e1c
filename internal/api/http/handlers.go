package http

import (
	"context"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
)

// Service launches contributors loading jobs.
//go:generate mockgen -destination mock/service.go -package mock github.com/m-zajac/orgcontributors/internal/api/http Service
type Service interface {
	Load(
		ctx context.Context,
		v app.Variant,
		spec app.RequestSpec,
		onUpdate app.UpdateFunc,
		controls app.Controls,
	) (*app.Handle, error)
}

type contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

type contributorsResponse struct {
	Org          string        `json:"org"`
	Variant      string        `json:"variant"`
	Status       string        `json:"status"`
	Contributors []contributor `json:"contributors"`
}

type progressResponse struct {
	Completed    bool          `json:"completed"`
	Status       string        `json:"status"`
	Contributors []contributor `json:"contributors"`
}

func newContributors(result []app.Contributor) []contributor {
	contributors := make([]contributor, 0, len(result))
	for _, c := range result {
		contributors = append(contributors, contributor{
			Login:         c.Login,
			Contributions: c.Contributions,
		})
	}

	return contributors
}

// NewContributorsHandler creates handlerfunc responding with final aggregated contributors.
// Responds after the job finishes. Job canceled before completion results in 504.
func NewContributorsHandler(
	getOrg func(*http.Request) string,
	service Service,
	defaultVariant app.Variant,
	l logrus.FieldLogger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := readVariant(w, r, defaultVariant)
		if !ok {
			return
		}

		var (
			m      sync.Mutex
			result []app.Contributor
		)
		onUpdate := func(contributors []app.Contributor, completed bool) {
			if !completed {
				return
			}
			m.Lock()
			result = contributors
			m.Unlock()
		}

		handle, err := service.Load(r.Context(), v, newRequestSpec(r, getOrg(r)), onUpdate, nil)
		if err != nil {
			writeServiceError(w, err, l)
			return
		}

		status := handle.Wait()
		if status.State != app.Completed {
			http.Error(w, status.String(), http.StatusGatewayTimeout)
			return
		}

		m.Lock()
		response := contributorsResponse{
			Org:          getOrg(r),
			Variant:      v.String(),
			Status:       status.String(),
			Contributors: newContributors(result),
		}
		m.Unlock()

		w.Header().Set("Content-type", "application/json; charset=utf-8")
		_ = jsoniter.ConfigFastest.NewEncoder(w).Encode(response)
	}
}

// NewProgressHandler creates handlerfunc streaming every job update as a json line.
// If job is canceled, last line has status "canceled".
func NewProgressHandler(
	getOrg func(*http.Request) string,
	service Service,
	defaultVariant app.Variant,
	l logrus.FieldLogger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		v, ok := readVariant(w, r, defaultVariant)
		if !ok {
			return
		}

		var (
			started bool
			enc     = jsoniter.ConfigFastest.NewEncoder(w)
		)
		// Updates are serialized by the job, no locking needed here.
		updates := app.NewStatusUpdates(func(contributors []app.Contributor, status app.Status) {
			if !started {
				started = true
				w.Header().Set("Content-type", "application/x-ndjson")
				w.WriteHeader(http.StatusOK)
			}
			if err := enc.Encode(progressResponse{
				Completed:    status.State == app.Completed,
				Status:       status.String(),
				Contributors: newContributors(contributors),
			}); err != nil {
				l.WithError(err).Debug("writing progress update")
				return
			}
			flusher.Flush()
		})

		handle, err := service.Load(r.Context(), v, newRequestSpec(r, getOrg(r)), updates.OnUpdate, nil)
		if err != nil {
			writeServiceError(w, err, l)
			return
		}
		updates.Bind(handle)

		status := handle.Wait()
		if status.State == app.Completed {
			return
		}
		if !started {
			w.Header().Set("Content-type", "application/x-ndjson")
			w.WriteHeader(http.StatusGatewayTimeout)
		}
		_ = enc.Encode(progressResponse{
			Status:       status.String(),
			Contributors: []contributor{},
		})
		flusher.Flush()
	}
}

func readVariant(w http.ResponseWriter, r *http.Request, defaultVariant app.Variant) (app.Variant, bool) {
	name := r.URL.Query().Get("variant")
	if name == "" {
		return defaultVariant, true
	}
	v, err := app.ParseVariant(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}

	return v, true
}

// newRequestSpec reads credentials from basic auth header.
// Missing header means server credentials are used.
func newRequestSpec(r *http.Request, org string) app.RequestSpec {
	spec := app.RequestSpec{Org: org}
	if user, token, ok := r.BasicAuth(); ok {
		spec.Credentials = app.Credentials{
			Username: user,
			Token:    token,
		}
	}

	return spec
}

func writeServiceError(w http.ResponseWriter, err error, l logrus.FieldLogger) {
	if app.IsInvalidRequestError(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l.WithError(err).Error("loading contributors")
	http.Error(w, "", http.StatusInternalServerError)
}

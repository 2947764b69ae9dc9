// Package server exposes the provisioning handler over HTTP and adapts both
// units to AWS Lambda events.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/starter"
)

// Starter handles one provisioning request
type Starter interface {
	Handle(ctx context.Context, passcode string) starter.Response
}

// Cleaner runs one cleanup pass set
type Cleaner interface {
	Run(ctx context.Context) (models.CleanupReport, error)
}

// NewRouter returns the HTTP handler serving the provisioning endpoint.
// Any method on / triggers provisioning.
func NewRouter(s Starter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		resp := s.Handle(r.Context(), r.Header.Get(starter.PasscodeHeader))
		writeJSON(w, resp.StatusCode, resp.Body)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"remote":    r.RemoteAddr,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
		}).Info("request")
	})
}

// Package httptransport composes the HTTP surface: ops endpoints, public
// signing routes behind the rate limiter, and owner routes behind auth.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signet/internal/blob"
	"signet/internal/document"
	"signet/internal/platform/metrics"
	"signet/internal/platform/middleware"
	"signet/internal/signature"
)

const (
	// signRateLimit bounds signing-link attempts per client IP per window.
	signRateLimit  = 30
	signRateWindow = time.Minute
)

// Deps is everything the router composes. All fields are required except
// Blobs, which is nil when blobs are served elsewhere.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator
	Limiter   middleware.RateLimiter

	Documents  *document.Handler
	Signatures *signature.Handler
	Blobs      *blob.Handler
}

// NewRouter wires the middleware chain and mounts every handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Metadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if d.Blobs != nil {
		d.Blobs.Register(r)
	}

	// Signer routes authenticate with the emailed token, not a session, so
	// they carry the brute-force limiter instead of RequireAuth.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(d.Limiter, signRateLimit, signRateWindow, d.Logger))
		d.Signatures.RegisterSigner(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		d.Documents.Register(r)
		d.Signatures.RegisterOwner(r)
	})

	return r
}

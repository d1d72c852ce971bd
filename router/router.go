// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/handlers"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/middleware"
)

// Deps are the services behind the routes
type Deps struct {
	Counter handlers.Counter
	Jobs    handlers.JobLedger
	Keys    handlers.KeyLifecycle

	// InboundGuard protects counting, AdminGuard protects key administration
	InboundGuard auth.Guard
	AdminGuard   auth.Guard

	Gatherer prometheus.Gatherer
	Version  string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	ballotHandler := handlers.NewBallotHandler(d.Counter, d.Jobs)
	keyHandler := handlers.NewKeyHandler(d.Keys)

	inbound := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithGuard(auth.HeaderBackofficeToBallotCrypto, d.InboundGuard, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithGuard(auth.HeaderAdmin, d.AdminGuard, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, map[string]string{
			"name":    "ballot-crypto",
			"version": d.Version,
		})
	})

	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Gatherer))
	}

	// Counting (backoffice only)
	mux.HandleFunc("POST /ballots/count", inbound(ballotHandler.CountBallots))
	mux.HandleFunc("GET /ballots/jobs/{jobId}", inbound(ballotHandler.GetJob))
	mux.HandleFunc("GET /ballots/elections/{electionId}/jobs", inbound(ballotHandler.ListElectionJobs))

	// Key administration
	mux.HandleFunc("POST /keys", admin(keyHandler.CreateKeys))
	mux.HandleFunc("GET /keys/{electionId}", admin(keyHandler.GetKeys))
	mux.HandleFunc("DELETE /keys/{electionId}", admin(keyHandler.DestroyKeys))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ballot-crypto API v1"))
	})

	return middleware.Recover(middleware.RequestID(middleware.CORS(mux)))
}

// Package api provides the HTTP server for Paydirt. Every mutating
// endpoint reads the caller's principal from the X-Principal header —
// the boundary where the execution context supplies caller identity.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paydirt-network/paydirt/internal/app/escrow"
	"github.com/paydirt-network/paydirt/internal/app/rating"
	"github.com/paydirt-network/paydirt/internal/app/training"
	"github.com/paydirt-network/paydirt/internal/domain"
	"github.com/paydirt-network/paydirt/internal/infra/ledger"
)

// principalHeader carries the caller identity.
const principalHeader = "X-Principal"

// Server is the Paydirt HTTP API server.
type Server struct {
	engine         *escrow.Engine
	trainings      *training.Registry
	ratings        *rating.Book
	vault          *ledger.Ledger
	defaultGrant   int64
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(engine *escrow.Engine, trainings *training.Registry, ratings *rating.Book, vault *ledger.Ledger) *Server {
	return &Server{engine: engine, trainings: trainings, ratings: ratings, vault: vault}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetDefaultGrant sets the amount credited by a deposit request that
// names no amount.
func (s *Server) SetDefaultGrant(amount int64) { s.defaultGrant = amount }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "paydirt is running"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", s.handleCreateTask)
		r.Get("/", s.handleListTasks)
		r.Get("/{id}", s.handleGetTask)
		r.Post("/{id}/assign", s.handleAssign)
		r.Post("/{id}/complete", s.handleComplete)
		r.Post("/{id}/verify", s.handleVerify)
		r.Post("/{id}/release", s.handleRelease)
		r.Post("/{id}/dispute", s.handleDispute)
		r.Post("/{id}/resolve", s.handleResolve)
		r.Post("/{id}/cancel", s.handleCancel)
		r.Post("/{id}/reassign", s.handleReassign)
		r.Post("/{id}/refund", s.handleRefund)
		r.Post("/{id}/ratings", s.handleRateTask)
		r.Get("/{id}/ratings", s.handleTaskRatings)
	})

	r.Route("/api/trainings", func(r chi.Router) {
		r.Post("/", s.handleCreateTraining)
		r.Get("/", s.handleListTrainings)
		r.Get("/{id}", s.handleGetTraining)
		r.Post("/{id}/complete", s.handleCompleteTraining)
		r.Post("/{id}/certify", s.handleCertify)
	})

	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/{id}", s.handleAccount)
		r.Get("/{id}/ledger", s.handleAccountLedger)
		r.Get("/{id}/ratings", s.handleAccountRatings)
		r.Post("/{id}/deposit", s.handleDeposit)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// caller extracts the principal from the request header.
func caller(r *http.Request) (domain.Principal, bool) {
	p := r.Header.Get(principalHeader)
	return domain.Principal(p), p != ""
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps sentinel errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrTrainingNotFound),
		errors.Is(err, domain.ErrNoSuchAccount):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrDisputeAuthorization),
		errors.Is(err, domain.ErrSelfCompletion):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientFunding),
		errors.Is(err, domain.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidAssignment),
		errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrAlreadyCertified),
		errors.Is(err, domain.ErrTrainingCompleted),
		errors.Is(err, domain.ErrCancellationNotAllowed),
		errors.Is(err, domain.ErrEscrowDrained):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCompletion),
		errors.Is(err, domain.ErrInvalidWithdrawal),
		errors.Is(err, domain.ErrDeadlineNotReached),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrNotAssigned),
		errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err.Error())
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/tariffa/internal/adapters/repository"
	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	QuoteDependencies
	ReconciliationDependencies
	HolidayDependencies
}

// QuoteDependencies prices single requests.
type QuoteDependencies interface {
	Quote(ctx context.Context, req types.QuoteRequest) (types.QuoteResponse, error)
}

// ReconciliationDependencies runs bulk pricing.
type ReconciliationDependencies interface {
	SubmitReconciliation(ctx context.Context, items []model.Item) (types.ReconciliationAck, error)
	Reconciliation(ctx context.Context, runID string) (model.Report, error)
	Wait(ctx context.Context, runID string) (model.Report, error)
}

// HolidayDependencies lists holidays.
type HolidayDependencies interface {
	Holidays(year int) ([]calendar.Holiday, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler         *HealthHandler
	statsHandler          *StatsHandler
	quotesHandler         *QuotesHandler
	reconciliationHandler *ReconciliationHandler
	holidaysHandler       *HolidaysHandler
}

// NewServer creates a new API server with all handlers. maxItems bounds a
// reconciliation submission; zero keeps the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxItems int) *Server {
	return &Server{
		healthHandler:         NewHealthHandler(nil),
		statsHandler:          NewStatsHandler(statsProvider),
		quotesHandler:         NewQuotesHandler(deps),
		reconciliationHandler: NewReconciliationHandler(deps, maxItems),
		holidaysHandler:       NewHolidaysHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/quotes", MetricsMiddleware(s.quotesHandler.HandlePostQuote, "quotes"))
	mux.HandleFunc("/v1/reconciliations", MetricsMiddleware(s.reconciliationHandler.HandlePostReconciliation, "reconciliations"))
	mux.HandleFunc("/v1/reconciliations/", MetricsMiddleware(s.reconciliationHandler.HandleGetReconciliation, "reconciliation"))
	mux.HandleFunc("/v1/holidays", MetricsMiddleware(s.holidaysHandler.HandleGetHolidays, "holidays"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors to a status: caller errors are 400,
// dependency failures 503, unknown runs 404 and anything else 500.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, model.ErrDependency), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "dependency_unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, repository.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// decodeBody reads a JSON body of at most limit bytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) (int, string, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, "too_large", ErrTooLarge
		}
		return http.StatusBadRequest, "bad_request", err
	}
	return 0, "", nil
}

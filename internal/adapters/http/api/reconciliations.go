package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/tariffa/internal/domain/types"
)

const (
	defaultMaxItems         = 10000
	maxReconciliationBody   = 32 << 20
	maxReconciliationWait   = 60 * time.Second
	reconciliationPathRoute = "/v1/reconciliations/"
)

// ReconciliationHandler handles bulk pricing runs.
type ReconciliationHandler struct {
	deps     ReconciliationDependencies
	maxItems int
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(deps ReconciliationDependencies, maxItems int) *ReconciliationHandler {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &ReconciliationHandler{deps: deps, maxItems: maxItems}
}

// HandlePostReconciliation handles POST /v1/reconciliations.
func (h *ReconciliationHandler) HandlePostReconciliation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reconciliation"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodInvalid))
		return
	}
	var req types.ReconciliationRequest
	if status, code, err := decodeBody(w, r, maxReconciliationBody, &req); err != nil {
		writeError(w, status, code, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Items) > h.maxItems {
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_items",
			WrapKind(op, ErrTooLarge, fmt.Errorf("%d items, limit %d", len(req.Items), h.maxItems)))
		return
	}
	ack, err := h.deps.SubmitReconciliation(r.Context(), req.ModelItems())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// HandleGetReconciliation handles GET /v1/reconciliations/{id}. With
// ?wait=<duration> it blocks until the run completes or the wait elapses.
func (h *ReconciliationHandler) HandleGetReconciliation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_reconciliation"
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodInvalid))
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, reconciliationPathRoute)
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing run id")))
		return
	}

	if raw := r.URL.Query().Get("wait"); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("invalid wait %q", raw)))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), min(wait, maxReconciliationWait))
		defer cancel()
		report, err := h.deps.Wait(ctx, runID)
		if err == nil {
			writeJSON(w, http.StatusOK, report)
			return
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			writeFailure(w, op, err)
			return
		}
		// still running: fall through to the current snapshot
	}

	report, err := h.deps.Reconciliation(r.Context(), runID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

package api

import (
	"net/http"

	"github.com/okian/tariffa/internal/domain/types"
)

const maxQuoteBody = 1 << 20

// QuotesHandler handles single quote requests.
type QuotesHandler struct {
	deps QuoteDependencies
}

// NewQuotesHandler creates a new quotes handler.
func NewQuotesHandler(deps QuoteDependencies) *QuotesHandler {
	return &QuotesHandler{deps: deps}
}

// HandlePostQuote handles POST /v1/quotes. A missing rate card is a 200 with
// status missing_tariff and a null result.
func (h *QuotesHandler) HandlePostQuote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_quote"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodInvalid))
		return
	}
	var req types.QuoteRequest
	if status, code, err := decodeBody(w, r, maxQuoteBody, &req); err != nil {
		writeError(w, status, code, WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := h.deps.Quote(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/api/problem"
	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// RespondServiceError maps domain errors to problem responses. Unknown errors
// are logged and reported as 500 without leaking their text.
func RespondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrOwnershipMismatch):
		RespondError(w, r, http.StatusForbidden, "security/ownership-mismatch", "caller does not own the wallet")
	case errors.Is(err, models.ErrNotFound):
		RespondError(w, r, http.StatusNotFound, "wallet/not-found", err.Error())
	case errors.Is(err, models.ErrAlreadyExists):
		RespondError(w, r, http.StatusConflict, "wallet/already-exists", err.Error())
	case errors.Is(err, models.ErrInvalidAmount):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/invalid-amount", err.Error())
	case errors.Is(err, models.ErrInvalidWallet):
		RespondError(w, r, http.StatusUnprocessableEntity, "wallet/invalid", err.Error())
	case errors.Is(err, models.ErrSelfTransfer):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/self-transfer", err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		RespondError(w, r, http.StatusUnprocessableEntity, "transfer/insufficient-funds", "insufficient funds")
	case models.IsRetryable(err):
		w.Header().Set("Retry-After", "1")
		problem.WriteDetails(w, r, problem.Details{
			Type:      problem.Type("transfer/lock-timeout"),
			Status:    http.StatusServiceUnavailable,
			Detail:    "wallet is busy, retry the request",
			Retryable: true,
		})
	default:
		zap.L().Error("request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
		)
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}

func requestActor(r *http.Request) (string, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", false, errors.New("missing user in auth context")
	}
	return userID, middleware.IsAdmin(r.Context()), nil
}

// pageParams reads the order and limit query parameters.
func pageParams(r *http.Request) (ledger.Order, int, error) {
	q := r.URL.Query()
	order := ledger.ParseOrder(strings.ToLower(q.Get("order")))

	n := defaultPageLimit
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return order, 0, errors.New("limit must be a positive integer")
		}
		n = min(v, maxPageLimit)
	}
	return order, n, nil
}

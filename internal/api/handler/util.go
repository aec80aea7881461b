package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/freelancehub/wallet-ledger/internal/api/middleware"
	"github.com/freelancehub/wallet-ledger/internal/api/problem"
	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (service.Actor, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return service.Actor{}, errors.New("missing user in auth context")
	}
	return service.Actor{ID: userID, Role: middleware.UserRoleFromContext(r.Context())}, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (limit, offset int32, err error) {
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		parsed, perr := strconv.ParseInt(v, 10, 32)
		if perr != nil || parsed <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = int32(parsed)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		parsed, perr := strconv.ParseInt(v, 10, 32)
		if perr != nil || parsed < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = int32(parsed)
	}
	return limit, offset, nil
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}

type errorMapping struct {
	target      error
	status      int
	problemType string
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidAmount, http.StatusBadRequest, "request/invalid-amount"},
	{service.ErrBankDetailsRequired, http.StatusBadRequest, "request/missing-bank-details"},
	{service.ErrReasonRequired, http.StatusBadRequest, "request/missing-reason"},
	{service.ErrInvalidManualOperation, http.StatusBadRequest, "request/invalid-operation-type"},
	{service.ErrInvalidPayoutDecision, http.StatusBadRequest, "payout/invalid-decision"},
	{service.ErrPaymentProofRequired, http.StatusBadRequest, "payout/missing-payment-proof"},
	{service.ErrRejectionReasonRequired, http.StatusBadRequest, "payout/missing-rejection-reason"},
	{service.ErrInvalidRating, http.StatusBadRequest, "review/invalid-rating"},
	{service.ErrInvalidOrderAmounts, http.StatusBadRequest, "order/invalid-amounts"},
	{service.ErrSameParty, http.StatusBadRequest, "order/same-party"},
	{service.ErrNotOrderParticipant, http.StatusForbidden, "auth/insufficient-permissions"},
	{models.ErrUserNotFound, http.StatusNotFound, "user/not-found"},
	{models.ErrWalletNotFound, http.StatusNotFound, "wallet/not-found"},
	{models.ErrPayoutNotFound, http.StatusNotFound, "payout/not-found"},
	{models.ErrOrderNotFound, http.StatusNotFound, "order/not-found"},
	{models.ErrPayoutBelowMinimum, http.StatusUnprocessableEntity, "payout/below-minimum"},
	{models.ErrInsufficientBalance, http.StatusUnprocessableEntity, "wallet/insufficient-balance"},
	{models.ErrWalletLocked, http.StatusConflict, "wallet/locked"},
	{models.ErrPayoutAlreadyProcessed, http.StatusConflict, "payout/already-processed"},
	{models.ErrInvalidOrderTransition, http.StatusConflict, "order/invalid-transition"},
	{models.ErrOrderNotCompleted, http.StatusConflict, "order/not-completed"},
	{models.ErrAlreadyReviewed, http.StatusConflict, "review/already-reviewed"},
}

// respondServiceError maps service and model sentinels onto problem responses. Anything it does
// not recognise is logged and reported as a 500 with fallbackType.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackType, fallbackMessage string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			RespondError(w, r, m.status, m.problemType, err.Error())
			return
		}
	}
	if status, problemType, message, ok := mapDBError(err); ok {
		RespondError(w, r, status, problemType, message)
		return
	}
	zap.L().Error(fallbackMessage,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
	)
	RespondError(w, r, http.StatusInternalServerError, fallbackType, fallbackMessage)
}

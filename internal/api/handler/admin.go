package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/service"
	"go.uber.org/zap"
)

// AdminHandler serves the payout queue and wallet administration endpoints.
type AdminHandler struct {
	wallets *service.WalletService
	payouts *service.PayoutService
}

func NewAdminHandler(wallets *service.WalletService, payouts *service.PayoutService) *AdminHandler {
	return &AdminHandler{wallets: wallets, payouts: payouts}
}

// ListPayouts handles GET /v1/admin/payouts?status=.
func (h *AdminHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}
	status := r.URL.Query().Get("status")

	payouts, err := h.payouts.ListPayouts(r.Context(), status, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "payout/list-failed", "failed to list payout requests")
		return
	}
	pending, err := h.payouts.PendingQueueSize(r.Context())
	if err != nil {
		zap.L().Warn("failed to compute pending payout count", zap.Error(err))
		pending = -1
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":         payouts,
		"count":         len(payouts),
		"limit":         limit,
		"offset":        offset,
		"pending_count": pending,
	})
}

// GetPayout handles GET /v1/admin/payouts/{id}.
func (h *AdminHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	payoutID, ok := pathID(r, "id")
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-payout-id", "Invalid payout ID")
		return
	}
	payout, err := h.payouts.GetPayout(r.Context(), payoutID)
	if err != nil {
		respondServiceError(w, r, err, "payout/read-failed", "failed to load payout request")
		return
	}
	RespondJSON(w, http.StatusOK, payout)
}

type processPayoutBody struct {
	Status            string `json:"status"`
	PaymentScreenshot string `json:"payment_screenshot"`
	ReferenceNumber   string `json:"reference_number"`
	PaymentDate       string `json:"payment_date"`
	Notes             string `json:"notes"`
	RejectionReason   string `json:"rejection_reason"`
}

// ProcessPayout handles POST /v1/admin/payouts/{id}/process.
func (h *AdminHandler) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	payoutID, ok := pathID(r, "id")
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-payout-id", "Invalid payout ID")
		return
	}

	var req processPayoutBody
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-payment-date", err.Error())
		return
	}

	payout, err := h.payouts.ProcessPayout(r.Context(), service.ProcessPayoutInput{
		PayoutID:          payoutID,
		AdminID:           actor.ID,
		Decision:          service.PayoutDecision(req.Status),
		PaymentScreenshot: req.PaymentScreenshot,
		ReferenceNumber:   req.ReferenceNumber,
		Notes:             req.Notes,
		RejectionReason:   req.RejectionReason,
		PaymentDate:       paymentDate,
	})
	if err != nil {
		respondServiceError(w, r, err, "payout/process-failed", "failed to process payout request")
		return
	}
	RespondJSON(w, http.StatusOK, payout)
}

// parsePaymentDate accepts RFC 3339 timestamps or plain dates. An empty value leaves the
// date for the service to default.
func parsePaymentDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("payment_date must be RFC 3339 or YYYY-MM-DD")
}

type manualOperationBody struct {
	UserID int64  `json:"user_id"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// ManualOperation handles POST /v1/admin/wallets/manual-operation.
func (h *AdminHandler) ManualOperation(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req manualOperationBody
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/missing-user-id", "user_id is required")
		return
	}

	result, err := h.wallets.ManualOperation(r.Context(), service.ManualOperationInput{
		AdminID: actor.ID,
		UserID:  req.UserID,
		Type:    req.Type,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		respondServiceError(w, r, err, "wallet/manual-operation-failed", "failed to apply manual operation")
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// LockWallet handles POST /v1/admin/wallets/{wallet}/lock.
func (h *AdminHandler) LockWallet(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, true)
}

// UnlockWallet handles POST /v1/admin/wallets/{wallet}/unlock.
func (h *AdminHandler) UnlockWallet(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, false)
}

func (h *AdminHandler) setLocked(w http.ResponseWriter, r *http.Request, locked bool) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	walletID, ok := pathID(r, "wallet")
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "Invalid wallet ID")
		return
	}

	action := h.wallets.UnlockWallet
	if locked {
		action = h.wallets.LockWallet
	}
	wallet, err := action(r.Context(), actor.ID, walletID)
	if err != nil {
		respondServiceError(w, r, err, "wallet/lock-failed", "failed to update wallet lock")
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// ExportWallets handles GET /v1/admin/wallets/export.
func (h *AdminHandler) ExportWallets(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("wallets_export_%s.csv", time.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	out := &writeTracker{w: w}
	if err := h.wallets.ExportWallets(r.Context(), out); err != nil {
		if !out.wrote {
			w.Header().Del("Content-Disposition")
			respondServiceError(w, r, err, "wallet/export-failed", "failed to export wallets")
			return
		}
		zap.L().Error("wallet export interrupted", zap.Error(err))
	}
}

// writeTracker records whether any bytes reached the client.
type writeTracker struct {
	w     http.ResponseWriter
	wrote bool
}

func (t *writeTracker) Write(p []byte) (int, error) {
	t.wrote = true
	return t.w.Write(p)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/freelancehub/wallet-ledger/internal/service"
)

// WalletHandler serves the freelancer's own wallet.
type WalletHandler struct {
	wallets *service.WalletService
}

func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetWallet handles GET /v1/freelancer/wallet.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallet, err := h.wallets.GetWallet(r.Context(), actor.ID)
	if err != nil {
		respondServiceError(w, r, err, "wallet/read-failed", "failed to load wallet")
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// ListTransactions handles GET /v1/freelancer/wallet/transactions.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	txs, err := h.wallets.ListTransactions(r.Context(), actor.ID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "wallet/transactions-read-failed", "failed to list wallet transactions")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  txs,
		"count":  len(txs),
		"limit":  limit,
		"offset": offset,
	})
}

type payoutRequestBody struct {
	Amount             int64  `json:"amount"`
	BankAccountDetails string `json:"bank_account_details"`
}

// RequestPayout handles POST /v1/freelancer/wallet/payout-request.
func (h *WalletHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req payoutRequestBody
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	payout, err := h.wallets.RequestPayout(r.Context(), service.RequestPayoutInput{
		UserID:             actor.ID,
		Amount:             req.Amount,
		BankAccountDetails: strings.TrimSpace(req.BankAccountDetails),
	})
	if err != nil {
		respondServiceError(w, r, err, "payout/create-failed", "failed to create payout request")
		return
	}
	RespondJSON(w, http.StatusCreated, payout)
}

// ListPayoutRequests handles GET /v1/freelancer/wallet/payout-requests.
func (h *WalletHandler) ListPayoutRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pagination", err.Error())
		return
	}

	payouts, err := h.wallets.ListPayoutRequests(r.Context(), actor.ID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err, "payout/list-failed", "failed to list payout requests")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"items":  payouts,
		"count":  len(payouts),
		"limit":  limit,
		"offset": offset,
	})
}

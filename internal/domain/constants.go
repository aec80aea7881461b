package domain

// Roles carried in the JWT role claim.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// Wallet transaction types. Amounts are signed: negative for debits and payout requests.
const (
	WalletTxCredit         = "credit"
	WalletTxDebit          = "debit"
	WalletTxPayoutRequest  = "payout_request"
	WalletTxPayoutPaid     = "payout_paid"
	WalletTxPayoutApproved = "payout_approved"
	WalletTxPayoutRejected = "payout_rejected"
)

// Payout request statuses. Only pending -> payout_paid and pending -> rejected are produced;
// approved and paid exist for rows imported from older records.
const (
	PayoutStatusPending    = "pending"
	PayoutStatusApproved   = "approved"
	PayoutStatusRejected   = "rejected"
	PayoutStatusPaid       = "paid"
	PayoutStatusPayoutPaid = "payout_paid"
)

// Order statuses.
const (
	OrderStatusPending           = "pending"
	OrderStatusPaymentVerified   = "payment_verified"
	OrderStatusInProgress        = "in_progress"
	OrderStatusReview            = "review"
	OrderStatusDelivered         = "delivered"
	OrderStatusCompleted         = "completed"
	OrderStatusCancelled         = "cancelled"
	OrderStatusRevisionRequested = "revision_requested"
)

// Order payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusFailed   = "failed"
)

// Manual admin operation kinds.
const (
	ManualOpCredit = "credit"
	ManualOpDebit  = "debit"
)

const (
	// DefaultPayoutMinimum is the smallest amount a freelancer may withdraw, in SDG.
	DefaultPayoutMinimum int64 = 200_000

	// DefaultFreelancerShare is the fraction of an order total credited to the freelancer.
	DefaultFreelancerShare = "0.80"
)

// AffectsBalance reports whether a wallet transaction of the given type moved the balance.
// payout_paid and payout_approved rows are audit entries: the funds left the balance when the
// payout was requested.
func AffectsBalance(txType string) bool {
	switch txType {
	case WalletTxCredit, WalletTxDebit, WalletTxPayoutRequest, WalletTxPayoutRejected:
		return true
	default:
		return false
	}
}

// BalanceAffectingTypes lists the transaction types whose amounts sum to a wallet's balance.
func BalanceAffectingTypes() []string {
	return []string{WalletTxCredit, WalletTxDebit, WalletTxPayoutRequest, WalletTxPayoutRejected}
}

// IsValidWalletTxType reports whether txType is a known wallet transaction type.
func IsValidWalletTxType(txType string) bool {
	switch txType {
	case WalletTxCredit, WalletTxDebit, WalletTxPayoutRequest, WalletTxPayoutPaid, WalletTxPayoutApproved, WalletTxPayoutRejected:
		return true
	default:
		return false
	}
}

// IsTerminalPayoutStatus reports whether a payout request can no longer be processed.
func IsTerminalPayoutStatus(status string) bool {
	return status != PayoutStatusPending
}

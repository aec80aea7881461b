package service

import (
	"errors"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Input validation failures. Handlers report these as 400.
var (
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrBankDetailsRequired     = errors.New("bank_account_details is required")
	ErrReasonRequired          = errors.New("reason is required")
	ErrInvalidManualOperation  = errors.New("type must be credit or debit")
	ErrInvalidPayoutDecision   = errors.New("status must be approved or rejected")
	ErrPaymentProofRequired    = errors.New("payment_screenshot and reference_number are required")
	ErrRejectionReasonRequired = errors.New("rejection_reason is required")
	ErrInvalidRating           = errors.New("rating must be between 1 and 5")
	ErrInvalidOrderAmounts     = errors.New("package_price and service_fee must not be negative")
	ErrSameParty               = errors.New("client and freelancer must differ")
)

// LedgerSettings carries the configurable money rules.
type LedgerSettings struct {
	PayoutMinimum   int64
	FreelancerShare decimal.Decimal
}

func DefaultLedgerSettings() LedgerSettings {
	return LedgerSettings{
		PayoutMinimum:   domain.DefaultPayoutMinimum,
		FreelancerShare: decimal.RequireFromString(domain.DefaultFreelancerShare),
	}
}

func (s LedgerSettings) withDefaults() LedgerSettings {
	def := DefaultLedgerSettings()
	if s.PayoutMinimum <= 0 {
		s.PayoutMinimum = def.PayoutMinimum
	}
	if !s.FreelancerShare.IsPositive() {
		s.FreelancerShare = def.FreelancerShare
	}
	return s
}

// ErrNotOrderParticipant is returned when the actor is neither a party to the order nor an admin.
var ErrNotOrderParticipant = errors.New("not allowed to act on this order")

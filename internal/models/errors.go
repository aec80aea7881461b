package models

import "errors"

var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletLocked           = errors.New("Wallet is locked")
	ErrInsufficientBalance    = errors.New("Insufficient balance")
	ErrPayoutBelowMinimum     = errors.New("payout amount is below the minimum")
	ErrPayoutNotFound         = errors.New("payout request not found")
	ErrPayoutAlreadyProcessed = errors.New("payout request already processed")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidOrderTransition = errors.New("invalid order status transition")
	ErrOrderNotCompleted      = errors.New("order is not completed")
	ErrAlreadyReviewed        = errors.New("order already reviewed")
	ErrUserNotFound           = errors.New("user not found")
)

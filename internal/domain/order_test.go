package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-2026-000001", FormatOrderNumber(2026, 1))
	assert.Equal(t, "ORD-2025-123456", FormatOrderNumber(2025, 123456))
	assert.Equal(t, "ORD-2025-1234567", FormatOrderNumber(2025, 1234567))
}

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{OrderStatusPending, OrderStatusPaymentVerified, true},
		{OrderStatusPending, OrderStatusInProgress, false},
		{OrderStatusPaymentVerified, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusReview, true},
		{OrderStatusInProgress, OrderStatusDelivered, true},
		{OrderStatusInProgress, OrderStatusCompleted, false},
		{OrderStatusReview, OrderStatusRevisionRequested, true},
		{OrderStatusRevisionRequested, OrderStatusInProgress, true},
		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusReview, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{" Pending ", "PAYMENT_VERIFIED", true},
		{"unknown", OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransitionOrder(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCancelReachableFromEveryOpenStatus(t *testing.T) {
	for status := range orderTransitions {
		if IsTerminalOrderStatus(status) {
			continue
		}
		assert.True(t, CanTransitionOrder(status, OrderStatusCancelled), status)
	}
	assert.True(t, IsTerminalOrderStatus(OrderStatusCompleted))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsValidOrderStatus("archived"))
}

func TestAffectsBalance(t *testing.T) {
	assert.True(t, AffectsBalance(WalletTxCredit))
	assert.True(t, AffectsBalance(WalletTxDebit))
	assert.True(t, AffectsBalance(WalletTxPayoutRequest))
	assert.True(t, AffectsBalance(WalletTxPayoutRejected))
	assert.False(t, AffectsBalance(WalletTxPayoutPaid))
	assert.False(t, AffectsBalance(WalletTxPayoutApproved))
	assert.True(t, IsValidWalletTxType(WalletTxPayoutPaid))
	assert.False(t, IsValidWalletTxType("refund"))
}

func TestBalanceAffectingTypesAgreeWithAffectsBalance(t *testing.T) {
	for _, txType := range BalanceAffectingTypes() {
		assert.True(t, AffectsBalance(txType), txType)
	}
	assert.NotContains(t, BalanceAffectingTypes(), WalletTxPayoutPaid)
}

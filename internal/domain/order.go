package domain

import (
	"fmt"
	"strings"
)

const orderNumberPrefix = "ORD"

// FormatOrderNumber renders the display number of the seq-th order of a year: ORD-2026-000042.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", orderNumberPrefix, year, seq)
}

var orderTransitions = map[string]map[string]struct{}{
	OrderStatusPending: {
		OrderStatusPaymentVerified: {},
		OrderStatusCancelled:       {},
	},
	OrderStatusPaymentVerified: {
		OrderStatusInProgress: {},
		OrderStatusCancelled:  {},
	},
	OrderStatusInProgress: {
		OrderStatusReview:    {},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	},
	OrderStatusReview: {
		OrderStatusDelivered:         {},
		OrderStatusCompleted:         {},
		OrderStatusRevisionRequested: {},
		OrderStatusCancelled:         {},
	},
	OrderStatusDelivered: {
		OrderStatusCompleted:         {},
		OrderStatusRevisionRequested: {},
		OrderStatusCancelled:         {},
	},
	OrderStatusRevisionRequested: {
		OrderStatusInProgress: {},
		OrderStatusReview:     {},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsValidOrderStatus reports whether status is one of the known order statuses.
func IsValidOrderStatus(status string) bool {
	_, ok := orderTransitions[normalizeStatus(status)]
	return ok
}

// CanTransitionOrder reports whether an order may move from current to next.
func CanTransitionOrder(current, next string) bool {
	nextStates, ok := orderTransitions[normalizeStatus(current)]
	if !ok {
		return false
	}
	_, ok = nextStates[normalizeStatus(next)]
	return ok
}

// IsTerminalOrderStatus reports whether no further transitions are possible.
func IsTerminalOrderStatus(status string) bool {
	nextStates, ok := orderTransitions[normalizeStatus(status)]
	return ok && len(nextStates) == 0
}

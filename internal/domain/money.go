package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the single settlement currency. Amounts are whole Sudanese pounds stored as BIGINT.
const Currency = "SDG"

var (
	errShareOutOfRange = errors.New("freelancer share must be greater than 0 and at most 1")
	ratingScale        = int32(2)
)

// ParseShare parses a fractional share such as "0.80".
func ParseShare(raw string) (decimal.Decimal, error) {
	share, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse share %q: %w", raw, err)
	}
	if !share.IsPositive() || share.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, errShareOutOfRange
	}
	return share, nil
}

// FreelancerCredit returns the part of an order total credited to the freelancer wallet.
// Fractions of a unit are rounded down so the platform never pays out more than the share.
func FreelancerCredit(totalAmount int64, share decimal.Decimal) int64 {
	if totalAmount <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalAmount).Mul(share).Floor().IntPart()
}

// AverageRating returns sum/count rounded to two decimals, or zero when there are no ratings.
func AverageRating(ratingSum, ratingCount int64) decimal.Decimal {
	if ratingCount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(ratingSum).DivRound(decimal.NewFromInt(ratingCount), ratingScale)
}

// FormatAmount renders an amount for humans, e.g. "80,000 SDG".
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := decimal.NewFromInt(amount).String()
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + string(out) + " " + Currency
}

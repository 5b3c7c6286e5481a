package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocate splits amount across weights in proportion to each weight using
// the largest remainder method. Every share is rounded to decimalPlaces, is
// never negative and never exceeds its weight; the shares add up to amount,
// capped at the sum of the positive weights.
func Allocate(amount decimal.Decimal, weights []decimal.Decimal, decimalPlaces int32) []decimal.Decimal {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	shares := make([]decimal.Decimal, len(weights))
	for i := range shares {
		shares[i] = decimal.Zero
	}

	total := decimal.Zero
	for _, w := range weights {
		if w.IsPositive() {
			total = total.Add(w)
		}
	}
	amount = Round(amount, decimalPlaces)
	if !amount.IsPositive() || !total.IsPositive() {
		return shares
	}
	if amount.GreaterThan(total) {
		amount = total
	}

	unit := decimal.New(1, -decimalPlaces)
	remainders := make([]decimal.Decimal, len(weights))
	left := amount
	for i, w := range weights {
		if !w.IsPositive() {
			remainders[i] = decimal.Zero
			continue
		}
		exact := amount.Mul(w).DivRound(total, decimalPlaces+8)
		share := exact.Truncate(decimalPlaces)
		if share.GreaterThan(w) {
			share = w.Truncate(decimalPlaces)
		}
		shares[i] = share
		remainders[i] = exact.Sub(share)
		left = left.Sub(share)
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	// Leftover units go to the largest remainders first, then round robin
	// over whatever still has headroom.
	for left.GreaterThanOrEqual(unit) {
		progressed := false
		for _, i := range order {
			if left.LessThan(unit) {
				break
			}
			if shares[i].Add(unit).GreaterThan(weights[i]) {
				continue
			}
			shares[i] = shares[i].Add(unit)
			left = left.Sub(unit)
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return shares
}

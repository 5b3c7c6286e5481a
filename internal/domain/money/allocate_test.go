package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weights(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = d(v)
	}
	return out
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		weights  []decimal.Decimal
		places   int32
		expected []string
	}{
		{name: "exact proportional split", amount: "2.70", weights: weights("22.00", "5.00"), places: 2, expected: []string{"2.20", "0.50"}},
		{name: "sub unit shares go to first lines on ties", amount: "0.02", weights: weights("1.00", "1.00", "1.00", "1.00"), places: 2, expected: []string{"0.01", "0.01", "0.00", "0.00"}},
		{name: "largest remainder wins the leftover", amount: "1.00", weights: weights("1.00", "2.00"), places: 2, expected: []string{"0.33", "0.67"}},
		{name: "three way split", amount: "10.00", weights: weights("3.00", "3.00", "3.00"), places: 2, expected: []string{"3.34", "3.33", "3.33"}},
		{name: "zero decimals", amount: "10", weights: weights("1", "1", "1"), places: 0, expected: []string{"4", "3", "3"}},
		{name: "amount above total is capped", amount: "5.00", weights: weights("1.00", "2.00"), places: 2, expected: []string{"1.00", "2.00"}},
		{name: "zero weight takes nothing", amount: "1.00", weights: weights("0", "4.00"), places: 2, expected: []string{"0.00", "1.00"}},
		{name: "zero amount", amount: "0", weights: weights("1.00", "2.00"), places: 2, expected: []string{"0.00", "0.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(d(tt.amount), tt.weights, tt.places)
			require.Len(t, got, len(tt.expected))
			for i, want := range tt.expected {
				assert.True(t, got[i].Equal(d(want)), "share %d: want %s got %s", i, want, got[i])
			}
		})
	}
}

func TestAllocate_SharesStayWithinBounds(t *testing.T) {
	for lines := 1; lines <= 7; lines++ {
		for cents := int64(1); cents <= 300; cents += 7 {
			ws := make([]decimal.Decimal, lines)
			total := decimal.Zero
			for i := range ws {
				ws[i] = decimal.New(int64(100+37*i), -2)
				total = total.Add(ws[i])
			}
			amount := decimal.New(cents, -2)
			if amount.GreaterThan(total) {
				continue
			}

			shares := Allocate(amount, ws, 2)
			sum := decimal.Zero
			for i, s := range shares {
				assert.False(t, s.IsNegative(), "lines=%d amount=%s share=%s", lines, amount, s)
				assert.True(t, s.LessThanOrEqual(ws[i]), "lines=%d amount=%s share=%s weight=%s", lines, amount, s, ws[i])
				assert.True(t, s.Equal(s.Truncate(2)), "share %s has too many places", s)
				sum = sum.Add(s)
			}
			assert.True(t, sum.Equal(amount), "lines=%d amount=%s sum=%s", lines, amount, sum)
		}
	}
}

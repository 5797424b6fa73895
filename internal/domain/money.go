package domain

import (
	"fmt"
	"math"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of minor units digits (cents) per major unit.
const MinorUnitExponent = 2

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Money is an integer amount of minor units. It is never a float so repeated
// transfers cannot drift.
type Money struct {
	Amount int64
}

// NewMoney wraps an amount of minor units.
func NewMoney(amount int64) Money {
	return Money{Amount: amount}
}

// ToDecimal converts minor units to major units.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.New(m.Amount, -MinorUnitExponent)
}

// String renders the amount in major units with a fixed number of decimals.
func (m Money) String() string {
	return m.ToDecimal().StringFixed(MinorUnitExponent)
}

// ParseAmount validates a transfer amount expressed in minor units.
// The value must be a positive whole number that fits in int64.
func ParseAmount(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not a whole number of minor units", models.ErrInvalidAmount, d.String())
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be positive", models.ErrInvalidAmount, d.String())
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s is out of range", models.ErrInvalidAmount, d.String())
	}
	return d.IntPart(), nil
}

// ParseBalance is like ParseAmount but accepts zero, for opening balances.
func ParseBalance(d decimal.Decimal) (int64, error) {
	if d.IsZero() {
		return 0, nil
	}
	return ParseAmount(d)
}

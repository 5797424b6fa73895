package domain

import (
	"math"
	"testing"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "10.50", NewMoney(1050).String())
	assert.Equal(t, "0.07", NewMoney(7).String())
	assert.Equal(t, "-3.00", NewMoney(-300).String())
}

func TestMoney_ToDecimal(t *testing.T) {
	assert.Equal(t, "10.5", NewMoney(1050).ToDecimal().String())
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, int64(300), amount)
}

func TestParseAmount_Rejects(t *testing.T) {
	cases := map[string]string{
		"fractional": "10.5",
		"zero":       "0",
		"negative":   "-5",
		"overflow":   "9223372036854775808",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAmount(decimal.RequireFromString(input))
			assert.ErrorIs(t, err, models.ErrInvalidAmount)
		})
	}
}

func TestParseAmount_MaxInt64(t *testing.T) {
	amount, err := ParseAmount(decimal.NewFromInt(math.MaxInt64))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), amount)
}

func TestParseBalance_AllowsZero(t *testing.T) {
	balance, err := ParseBalance(decimal.Zero)
	require.NoError(t, err)
	assert.Zero(t, balance)

	_, err = ParseBalance(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

func TestNew_RejectsExcessScale(t *testing.T) {
	_, err := money.New(decimal.RequireFromString("1.00001"))
	assert.Error(t, err)

	a, err := money.New(decimal.RequireFromString("1.0001"))
	require.NoError(t, err)
	assert.Equal(t, "1.0001", a.String())
}

func TestAmount_String_PreservesTrailingZeros(t *testing.T) {
	a := money.MustFromString("1500")
	assert.Equal(t, "1500.0000", a.String())
	assert.Equal(t, "1500.00", a.Present())
}

func TestAmount_Present_BankersRounding(t *testing.T) {
	// Half-to-even at the presentation boundary.
	assert.Equal(t, "0.12", money.MustFromString("0.125").Present())
	assert.Equal(t, "0.14", money.MustFromString("0.135").Present())
	assert.Equal(t, "0.13", money.MustFromString("0.1251").Present())
}

func TestAmount_Cents(t *testing.T) {
	assert.Equal(t, int64(390000), money.MustFromString("3900").Cents())
	assert.Equal(t, int64(105000), money.MustFromString("1050.00").Cents())
	assert.Equal(t, int64(-15000), money.MustFromString("-150").Cents())
}

func TestFromCents_RoundTrip(t *testing.T) {
	a := money.FromCents(123456)
	assert.Equal(t, "1234.56", a.Present())
	assert.Equal(t, int64(123456), a.Cents())
}

func TestAmount_Arithmetic(t *testing.T) {
	a := money.MustFromString("100.5000")
	b := money.MustFromString("0.2500")

	assert.Equal(t, "100.7500", a.Add(b).String())
	assert.Equal(t, "100.2500", a.Sub(b).String())
	assert.Equal(t, "-100.5000", a.Neg().String())
	assert.Equal(t, "100.5000", a.Neg().Abs().String())
	assert.Equal(t, 1, a.Cmp(b))
}

func TestWithinEpsilon(t *testing.T) {
	assert.True(t, money.WithinEpsilon(decimal.RequireFromString("0.00009"), money.BalanceEpsilon))
	assert.False(t, money.WithinEpsilon(decimal.RequireFromString("0.0001"), money.BalanceEpsilon))
	assert.True(t, money.WithinEpsilon(decimal.RequireFromString("-0.005"), money.TrustEpsilon))
	assert.False(t, money.WithinEpsilon(decimal.RequireFromString("0.01"), money.TrustEpsilon))
}

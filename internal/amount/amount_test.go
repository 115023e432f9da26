package amount_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"0.000000000000000001",
		"1",
		"1000000.5",
		"50",
		"0",
		"123456789.123456789123456789",
	}

	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			a, err := amount.Parse(in)
			require.NoError(t, err)

			back, err := amount.Parse(a.Decimal())
			require.NoError(t, err)
			assert.Equal(t, 0, a.Cmp(back), "decimal form must round-trip exactly")
		})
	}
}

func TestParse_BaseUnits(t *testing.T) {
	a, err := amount.Parse("1")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", a.BaseString())

	a, err = amount.Parse("0.000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1", a.BaseString())

	a, err = amount.Parse("1000000.5")
	require.NoError(t, err)
	assert.Equal(t, "1000000500000000000000000", a.BaseString())
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		".",
		"abc",
		"1.2.3",
		"1e18",
		"0.0000000000000000001", // 19 fractional digits
	} {
		_, err := amount.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDecimal_TrimsTrailingZeros(t *testing.T) {
	a, err := amount.Parse("2.500000")
	require.NoError(t, err)
	assert.Equal(t, "2.5", a.Decimal())

	a, err = amount.Parse("3.000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "3", a.Decimal())
}

func TestArithmetic_Exact(t *testing.T) {
	// Summing many small donations must not drift.
	small := amount.MustParse("0.1")
	sum := amount.Zero()
	for range 10 {
		sum = sum.Add(small)
	}
	assert.Equal(t, 0, sum.Cmp(amount.MustParse("1")))

	diff := amount.MustParse("1000000.5").Sub(amount.MustParse("0.5"))
	assert.Equal(t, "1000000", diff.Decimal())
}

func TestFromBase_Copies(t *testing.T) {
	v := big.NewInt(42)
	a := amount.FromBase(v)
	v.SetInt64(7)
	assert.Equal(t, "42", a.BaseString())
}

func TestFromBaseString(t *testing.T) {
	a, err := amount.FromBaseString("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1", a.Decimal())

	_, err = amount.FromBaseString("not-a-number")
	assert.Error(t, err)
}

func TestPositive(t *testing.T) {
	assert.True(t, amount.MustParse("0.000000000000000001").Positive())
	assert.False(t, amount.Zero().Positive())
	assert.False(t, amount.MustParse("-1").Positive())
}

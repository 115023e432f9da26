// Package amount implements exact fixed-point token arithmetic.
//
// All on-chain values are integers denominated in base units of 10^-18 RC.
// Conversions between the human decimal form and base units are performed with
// big.Int only; floating point never touches an amount.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(domain.TokenDecimals), nil)

// Amount is a token value in base units. The zero value is zero RC.
type Amount struct {
	base *big.Int
}

// Zero returns a zero amount.
func Zero() Amount {
	return Amount{base: new(big.Int)}
}

// FromBase wraps a base-unit integer. The value is copied.
func FromBase(v *big.Int) Amount {
	if v == nil {
		return Zero()
	}
	return Amount{base: new(big.Int).Set(v)}
}

// FromBaseString parses a base-unit integer string, the form amounts are
// stored in (numeric columns, event payloads).
func FromBaseString(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid base amount %q", s)
	}
	return Amount{base: v}, nil
}

// Parse converts a human decimal string ("50", "1000000.5",
// "0.000000000000000001") into an amount. It fails on empty input, more than
// 18 fractional digits, or anything that is not a plain decimal number.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if len(fracPart) > domain.TokenDecimals {
		return Amount{}, fmt.Errorf("amount %q exceeds %d fractional digits", s, domain.TokenDecimals)
	}
	if intPart == "" {
		intPart = "0"
	}

	// Right-pad the fraction to exactly TokenDecimals digits and parse the
	// concatenation as one integer.
	padded := intPart + fracPart + strings.Repeat("0", domain.TokenDecimals-len(fracPart))
	v, ok := new(big.Int).SetString(padded, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		v.Neg(v)
	}

	return Amount{base: v}, nil
}

// MustParse is Parse for constants known to be valid. It panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Base returns a copy of the base-unit integer.
func (a Amount) Base() *big.Int {
	if a.base == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.base)
}

// BaseString returns the base-unit integer as a decimal string, the canonical
// storage form (numeric(78,0)).
func (a Amount) BaseString() string {
	if a.base == nil {
		return "0"
	}
	return a.base.String()
}

// Decimal renders the amount as an exact human decimal string with trailing
// fractional zeros trimmed. Parse(a.Decimal()) always round-trips to a.
func (a Amount) Decimal() string {
	if a.base == nil || a.base.Sign() == 0 {
		return "0"
	}

	v := new(big.Int).Abs(a.base)
	q, r := new(big.Int).QuoRem(v, unit, new(big.Int))

	out := q.String()
	if r.Sign() != 0 {
		frac := fmt.Sprintf("%0*s", domain.TokenDecimals, r.String())
		frac = strings.TrimRight(frac, "0")
		out += "." + frac
	}
	if a.base.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// String implements fmt.Stringer as the human decimal form.
func (a Amount) String() string {
	return a.Decimal()
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{base: new(big.Int).Add(a.Base(), b.Base())}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{base: new(big.Int).Sub(a.Base(), b.Base())}
}

// Cmp compares a and b, returning -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.Base().Cmp(b.Base())
}

// Positive reports whether the amount is strictly greater than zero.
func (a Amount) Positive() bool {
	return a.base != nil && a.base.Sign() > 0
}

package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PostingScale is the scale at which posting amounts are stored and
// accumulated. Rounding never happens during accumulation.
const PostingScale int32 = 4

// PresentationScale is the scale at which balances are reported.
const PresentationScale int32 = 2

// BalanceEpsilon is the default tolerance for the balanced-entry invariant:
// the signed postings of a journal entry must sum to zero within 1e-4.
var BalanceEpsilon = decimal.New(1, -4)

// TrustEpsilon is the default tolerance for the trust-integrity equation
// (one cent).
var TrustEpsilon = decimal.New(1, -2)

// Amount is an immutable monetary amount carried at the posting scale.
// The zero value is a valid zero amount.
type Amount struct {
	d decimal.Decimal
}

// New creates an Amount from a decimal. Values carrying more than four
// decimal places are rejected rather than silently rounded.
func New(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -PostingScale {
		return Amount{}, fmt.Errorf("amount %s exceeds posting scale of %d decimal places", d, PostingScale)
	}
	return Amount{d: d}, nil
}

// NewFromString parses a decimal amount string.
func NewFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return New(d)
}

// MustFromString parses an amount and panics on error. Intended for
// package-level variables and tests only.
func MustFromString(s string) Amount {
	a, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero is the zero amount.
func Zero() Amount {
	return Amount{}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) IsZero() bool     { return a.d.IsZero() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// Add returns the sum of a and other.
func (a Amount) Add(other Amount) Amount {
	return Amount{d: a.d.Add(other.d)}
}

// Sub returns a minus other.
func (a Amount) Sub(other Amount) Amount {
	return Amount{d: a.d.Sub(other.d)}
}

// Neg returns a with the sign flipped.
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// Abs returns the absolute value of a.
func (a Amount) Abs() Amount {
	return Amount{d: a.d.Abs()}
}

// Mul returns a multiplied by factor at full precision.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(factor)}
}

// Cmp compares a and other: -1 if a < other, 0 if equal, +1 if a > other.
func (a Amount) Cmp(other Amount) int {
	return a.d.Cmp(other.d)
}

// Equal reports whether a and other represent the same value.
func (a Amount) Equal(other Amount) bool {
	return a.d.Equal(other.d)
}

// String formats the amount at the posting scale, preserving trailing zeros.
func (a Amount) String() string {
	return a.d.StringFixed(PostingScale)
}

// Present formats the amount at the presentation scale using banker's
// rounding. Rounding happens here and only here.
func (a Amount) Present() string {
	return a.d.RoundBank(PresentationScale).StringFixed(PresentationScale)
}

// Cents returns the amount as an integer number of cents, banker's-rounded.
// Fixed-width bank formats (NACHA, FIRE) carry amounts as integer cents.
func (a Amount) Cents() int64 {
	return a.d.RoundBank(2).Mul(decimal.New(1, 2)).IntPart()
}

// Cents converts a raw decimal to integer cents, banker's-rounded.
func Cents(d decimal.Decimal) int64 {
	return d.RoundBank(2).Mul(decimal.New(1, 2)).IntPart()
}

// FromCents builds an Amount from an integer number of cents.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -2)}
}

// WithinEpsilon reports whether |d| < epsilon.
func WithinEpsilon(d, epsilon decimal.Decimal) bool {
	return d.Abs().LessThan(epsilon)
}

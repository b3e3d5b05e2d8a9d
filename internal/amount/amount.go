package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// DivisionPrecision is the number of fractional digits kept by Div.
// Equal ratios always produce identical quotients, so quotients can be used as exact map/tree keys.
const DivisionPrecision = 36

// ErrDivisionByZero is returned by Div when the divisor is zero
var ErrDivisionByZero = errors.New("division by zero")

// Amount is an arbitrary-precision decimal used for token amounts and prices
//
// Raw on-chain integers are converted with FromRaw/ToRaw and an explicit decimals scale:
//   - raw "0xde0b6b3a7640000" with 18 decimals = 1
//   - 2.5 with 6 decimals = raw 2500000
//
// The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount
var Zero = Amount{}

// New wraps a decimal
func New(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// FromInt creates an amount from an integer
func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromFloat converts a float such as a configured factor
// Not for token amounts.
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// FromBig creates an amount from a raw integer scaled down by decimals
func FromBig(raw *big.Int, decimals int) Amount {
	if raw == nil {
		return Zero
	}
	return Amount{d: decimal.NewFromBigInt(raw, -int32(decimals))}
}

// FromRaw parses a raw integer (hex "0x..." or decimal) and scales it down by decimals
func FromRaw(raw string, decimals int) (Amount, error) {
	if decimals < 0 {
		return Zero, fmt.Errorf("invalid decimals %d", decimals)
	}
	v, ok := math.ParseBig256(strings.TrimSpace(raw))
	if !ok {
		return Zero, fmt.Errorf("invalid raw amount %q", raw)
	}
	return FromBig(v, decimals), nil
}

// Parse parses a decimal string such as "12.5"
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is like Parse but panics on invalid input
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ToRaw converts to a raw integer with the given decimals, truncating extra digits
func (a Amount) ToRaw(decimals int) *big.Int {
	return a.d.Shift(int32(decimals)).Truncate(0).BigInt()
}

// Hex returns the raw integer for the given decimals as a 0x-prefixed hex string
func (a Amount) Hex(decimals int) string {
	return hexutil.EncodeBig(a.ToRaw(decimals))
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Mul returns a * b without rounding
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d)}
}

// Div divides a by b, keeping DivisionPrecision fractional digits
func (a Amount) Div(b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Zero, ErrDivisionByZero
	}
	return Amount{d: a.d.DivRound(b.d, DivisionPrecision)}, nil
}

// Shift multiplies by 10^exp
func (a Amount) Shift(exp int) Amount {
	return Amount{d: a.d.Shift(int32(exp))}
}

// Abs returns |a|
func (a Amount) Abs() Amount {
	return Amount{d: a.d.Abs()}
}

// Truncate drops digits after the given number of fractional places, never rounding up
func (a Amount) Truncate(places int) Amount {
	return Amount{d: a.d.Truncate(int32(places))}
}

// Cmp compares a and b exactly: -1 if a < b, 0 if equal, +1 if a > b
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b have the same value, ignoring scale
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// GreaterThan reports whether a > b
func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}

// LessThan reports whether a < b
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// IsZero reports whether a is zero
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Sign returns -1, 0 or +1 depending on the sign of a
func (a Amount) Sign() int {
	return a.d.Sign()
}

// Decimal returns the underlying decimal value
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Float64 returns the nearest float64, for display weights only
func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

// String returns the exact decimal representation
func (a Amount) String() string {
	return a.d.String()
}

// Max returns the larger of a and b
func Max(a, b Amount) Amount {
	if a.LessThan(b) {
		return b
	}
	return a
}

// Min returns the smaller of a and b
func Min(a, b Amount) Amount {
	if b.LessThan(a) {
		return b
	}
	return a
}

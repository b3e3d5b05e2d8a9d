package swap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

const (
	// NativeContract stands in for the chain's native token (ICX) wherever a contract is expected
	NativeContract = "cx0000000000000000000000000000000000000000"
	// NativeDecimals is the precision of the native token
	NativeDecimals = 18
	// NativeSymbol is the symbol of the native token
	NativeSymbol = "ICX"
	// EmptyProvider is the provider of a leg nobody has filled yet
	EmptyProvider = "hx0000000000000000000000000000000000000000"
)

// ErrMalformedSwap is returned for swaps with a zero base or quote amount
var ErrMalformedSwap = errors.New("malformed swap")

// Status swap lifecycle status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusCancelled Status = "CANCELLED"
	StatusEmpty     Status = "EMPTY"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusCancelled, StatusEmpty:
		return true
	}
	return false
}

// Leg is one side of a bilateral swap
// Amount is the raw on-chain integer (unscaled, zero decimals).
type Leg struct {
	Contract string
	Amount   amount.Amount
	Provider string
}

// RawSwap is a swap offer or filled trade as reported by the chain
type RawSwap struct {
	ID        string
	Maker     Leg
	Taker     Leg
	Status    Status
	Timestamp time.Time
}

// Pair is a (base, quote) market, prices are quote-per-base
type Pair struct {
	Base  string
	Quote string
}

// NewPair creates a pair
func NewPair(base, quote string) Pair {
	return Pair{Base: base, Quote: quote}
}

// Name returns "base/quote", the key used to fetch pair collections
func (p Pair) Name() string {
	return p.Base + "/" + p.Quote
}

// Flip returns the same market viewed the other way round
func (p Pair) Flip() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// Decimals token precision of a pair
type Decimals struct {
	Base  int
	Quote int
}

// Flip swaps base and quote decimals
func (d Decimals) Flip() Decimals {
	return Decimals{Base: d.Quote, Quote: d.Base}
}

// SameContract compares contract or wallet addresses case-insensitively
func SameContract(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Legs returns the base and quote legs of s for pair
// The leg whose contract is the quote token is the quote leg, the other one is base.
func Legs(s RawSwap, pair Pair) (base, quote Leg) {
	if SameContract(s.Maker.Contract, pair.Quote) {
		return s.Taker, s.Maker
	}
	return s.Maker, s.Taker
}

// Price returns the unscaled quote-per-base ratio of s (raw quote units per raw base unit)
func Price(s RawSwap, pair Pair) (amount.Amount, error) {
	base, quote := Legs(s, pair)
	if base.Amount.Sign() <= 0 || quote.Amount.Sign() <= 0 {
		return amount.Zero, fmt.Errorf("%w: swap %s has base %s quote %s",
			ErrMalformedSwap, s.ID, base.Amount, quote.Amount)
	}
	return quote.Amount.Div(base.Amount)
}

// UnitPrice returns the price of s in whole tokens (quote token per base token)
func UnitPrice(s RawSwap, pair Pair, dec Decimals) (amount.Amount, error) {
	p, err := Price(s, pair)
	if err != nil {
		return amount.Zero, err
	}
	return p.Shift(dec.Base - dec.Quote), nil
}

// IsBuyer reports whether the maker of s offers the quote token, i.e. is buying base
func IsBuyer(s RawSwap, pair Pair) bool {
	return SameContract(s.Maker.Contract, pair.Quote)
}

// IsUserSwap reports whether wallet provided either leg of s
func IsUserSwap(s RawSwap, wallet string) bool {
	if wallet == "" {
		return false
	}
	return SameContract(s.Maker.Provider, wallet) || SameContract(s.Taker.Provider, wallet)
}

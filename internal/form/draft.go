package form

import (
	"math/big"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Order is one leg of a limit order draft
type Order struct {
	Contract string
	Amount   amount.Amount // whole tokens
	Decimals int
}

// Raw returns the on-chain integer amount
func (o Order) Raw() *big.Int {
	return o.Amount.ToRaw(o.Decimals)
}

// Hex returns the on-chain integer amount as hex
func (o Order) Hex() string {
	return o.Amount.Hex(o.Decimals)
}

// Draft is a limit order built from a form, ready to be signed by the wallet layer
type Draft struct {
	Maker Order
	Taker Order
}

// NewDraft builds a limit order from the form of side
// Selling offers amount of base for total of quote; buying offers total of quote for amount of base.
func NewDraft(f Form, side Side, pair swap.Pair, dec swap.Decimals) (Draft, error) {
	if !f.Amount.Valid || !f.Total.Valid || f.Amount.Amount.Sign() <= 0 || f.Total.Amount.Sign() <= 0 {
		return Draft{}, ErrIncompleteForm
	}

	base := Order{Contract: pair.Base, Amount: f.Amount.Amount, Decimals: dec.Base}
	quote := Order{Contract: pair.Quote, Amount: f.Total.Amount, Decimals: dec.Quote}

	if side == Sell {
		return Draft{Maker: base, Taker: quote}, nil
	}
	return Draft{Maker: quote, Taker: base}, nil
}

// Price returns the draft price as quote per base
func (d Draft) Price(pair swap.Pair) (amount.Amount, error) {
	if swap.SameContract(d.Maker.Contract, pair.Base) {
		return d.Taker.Amount.Div(d.Maker.Amount)
	}
	return d.Maker.Amount.Div(d.Taker.Amount)
}

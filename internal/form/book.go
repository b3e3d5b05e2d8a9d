package form

import (
	"fmt"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/depth"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Side selects the buy or sell form
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Target returns the form a sweep of the given book side fills
// Sweeping asks buys base, sweeping bids sells it.
func Target(kind depth.Kind) Side {
	if kind == depth.Bids {
		return Sell
	}
	return Buy
}

// Book holds the buy and sell forms of a market
type Book struct {
	Buy  Form
	Sell Form
}

// NewBook creates empty forms with the given precision
func NewBook(precision int) Book {
	return Book{Buy: New(precision), Sell: New(precision)}
}

// Form returns the form of side
func (b Book) Form(side Side) Form {
	if side == Sell {
		return b.Sell
	}
	return b.Buy
}

// With returns b with the form of side replaced
func (b Book) With(side Side, f Form) Book {
	if side == Sell {
		b.Sell = f
	} else {
		b.Buy = f
	}
	return b
}

// Set applies a field edit to the form of side
func (b Book) Set(side Side, field Field, v amount.NullAmount) (Book, error) {
	f, err := b.Form(side).Set(field, v)
	return b.With(side, f), err
}

// Seed pushes a depth fill into the form on the other side of the walked book
// Fill values are raw units and are converted with the pair decimals.
func (b Book) Seed(fill depth.Fill, dec swap.Decimals) Book {
	side := Target(fill.Kind)
	price := fill.Price.Shift(dec.Base - dec.Quote)
	size := fill.Amount.Shift(-dec.Base)
	total := fill.Total.Shift(-dec.Quote)
	return b.With(side, b.Form(side).Fill(price, size, total))
}

// FillPercent sets a share of the wallet into the form of side
//
// The sell form gets pct% of the base balance as amount. The buy form gets pct% of the quote
// balance as total, and derives amount when a price is set.
func (b Book) FillPercent(side Side, pct int, bal depth.Balances, dec swap.Decimals) (Book, error) {
	if pct <= 0 || pct > 100 {
		return b, fmt.Errorf("invalid wallet percentage %d", pct)
	}
	share := amount.FromInt(int64(pct)).Shift(-2)
	f := b.Form(side)

	if side == Sell {
		size := bal.Base.Shift(-dec.Base).Mul(share).Truncate(f.Precision)
		return b.Set(side, Amount, amount.Some(size))
	}
	total := bal.Quote.Shift(-dec.Quote).Mul(share).Truncate(f.Precision)
	return b.Set(side, Total, amount.Some(total))
}

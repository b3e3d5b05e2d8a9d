package market

import (
	"time"

	"github.com/samber/lo"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/depth"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/form"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/quote"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Inputs is everything fetched for one refresh
type Inputs struct {
	Pair     swap.Pair
	Buyers   []swap.RawSwap
	Sellers  []swap.RawSwap
	Filled   []swap.RawSwap // most recent first
	Balances depth.Balances
	Decimals swap.Decimals
	Symbols  map[string]string
}

// Display presentation settings of a market
type Display struct {
	Bounds         quote.Bounds // order price deviation thresholds
	PricePrecision int          // fractional digits of displayed pair prices
	FormPrecision  int          // fractional digits of order form fields
}

// DefaultDisplay returns 1.5 / 1.3 bounds, 8 price digits and 7 form digits
func DefaultDisplay() Display {
	return Display{
		Bounds:         quote.DefaultBounds(),
		PricePrecision: 8,
		FormPrecision:  form.DefaultPrecision,
	}
}

func (d Display) withDefaults() Display {
	def := DefaultDisplay()
	if d.Bounds.Low.Sign() <= 0 {
		d.Bounds.Low = def.Bounds.Low
	}
	if d.Bounds.High.Sign() <= 0 {
		d.Bounds.High = def.Bounds.High
	}
	if d.PricePrecision <= 0 {
		d.PricePrecision = def.PricePrecision
	}
	if d.FormPrecision <= 0 {
		d.FormPrecision = def.FormPrecision
	}
	return d
}

// Snapshot is an immutable view of a market
// Snapshots are replaced wholesale on refresh and must not be modified after Build.
type Snapshot struct {
	ID       string
	Seq      uint64
	Pair     swap.Pair
	Inverted bool

	Balances depth.Balances
	Decimals swap.Decimals
	Symbols  map[string]string

	Bids   depth.Side
	Asks   depth.Side
	Spread amount.Amount

	History     []swap.RawSwap
	MarketPrice amount.NullAmount
	LastPrice   amount.NullAmount

	Display   Display
	UpdatedAt time.Time
}

// Build derives a snapshot from fetched inputs
// History is cut to historyDisplay swaps after pricing has seen the full window.
func Build(in Inputs, estimator *quote.Estimator, historyDisplay int, now time.Time) *Snapshot {
	bids, asks, inverted := depth.NormalizeOrientation(in.Buyers, in.Sellers, in.Pair)

	snap := &Snapshot{
		Pair:      in.Pair,
		Inverted:  inverted,
		Balances:  in.Balances,
		Decimals:  in.Decimals,
		Symbols:   in.Symbols,
		Bids:      bids,
		Asks:      asks,
		Spread:    depth.Spread(bids, asks),
		History:   in.Filled,
		Display:   DefaultDisplay(),
		UpdatedAt: now,
	}

	if p, err := estimator.MarketPrice(in.Filled, in.Pair, in.Decimals); err == nil {
		snap.MarketPrice = amount.Some(p)
	}
	if p, err := quote.LastPrice(in.Filled, in.Pair, in.Decimals); err == nil {
		snap.LastPrice = amount.Some(p)
	}
	if historyDisplay > 0 && len(snap.History) > historyDisplay {
		snap.History = in.Filled[:historyDisplay]
	}

	return snap
}

// Side returns the bids or asks
func (s *Snapshot) Side(kind depth.Kind) depth.Side {
	if kind == depth.Bids {
		return s.Bids
	}
	return s.Asks
}

// Walk sweeps a side of the snapshot down to index, clamped by the snapshot balances
func (s *Snapshot) Walk(kind depth.Kind, index int) (depth.Fill, error) {
	return depth.Walk(s.Side(kind), index, s.Balances)
}

// Seed walks a side down to index and returns fresh forms with the fill applied
// Walking asks fills the buy form, walking bids the sell form.
func (s *Snapshot) Seed(kind depth.Kind, index int) (form.Book, error) {
	fill, err := s.Walk(kind, index)
	if err != nil {
		return form.Book{}, err
	}
	return form.NewBook(s.Display.FormPrecision).Seed(fill, s.Decimals), nil
}

// CheckPrice classifies an order unit price against the market price
func (s *Snapshot) CheckPrice(price amount.Amount) quote.Deviation {
	return quote.CheckPrice(price, s.MarketPrice, s.Display.Bounds)
}

// Warning returns the confirmation message for an order unit price, "" when fair
func (s *Snapshot) Warning(price amount.Amount) string {
	return quote.Warning(price, s.MarketPrice, s.Display.Bounds)
}

// UnitPrice converts the raw price of a level to quote tokens per base token
func (s *Snapshot) UnitPrice(level depth.PriceLevel) amount.Amount {
	return level.Price.Shift(s.Decimals.Base - s.Decimals.Quote)
}

// Format renders a unit price truncated to the display precision, "" when unset
func (s *Snapshot) Format(p amount.NullAmount) string {
	if !p.Valid {
		return ""
	}
	return p.Amount.Truncate(s.Display.PricePrecision).String()
}

// Dropped returns ids of malformed swaps left out of both sides
func (s *Snapshot) Dropped() []string {
	return append(append([]string{}, s.Bids.Dropped...), s.Asks.Dropped...)
}

// Symbol returns the symbol of contract, or the contract itself when unknown
func (s *Snapshot) Symbol(contract string) string {
	if sym, ok := s.Symbols[contract]; ok {
		return sym
	}
	return contract
}

// UserHistory returns the displayed history swaps wallet took part in
func (s *Snapshot) UserHistory(wallet string) []swap.RawSwap {
	return lo.Filter(s.History, func(sw swap.RawSwap, _ int) bool {
		return swap.IsUserSwap(sw, wallet)
	})
}

// Stale reports whether the snapshot is older than maxAge
func (s *Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if s == nil {
		return true
	}
	return maxAge > 0 && now.Sub(s.UpdatedAt) > maxAge
}

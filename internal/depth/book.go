package depth

import (
	"github.com/samber/lo"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Kind identifies a side of the order book
type Kind int

const (
	// Asks is the sell side, ascending by price. Maker legs hold the base token.
	Asks Kind = iota
	// Bids is the buy side, descending by price. Taker legs hold the base token.
	Bids
)

func (k Kind) String() string {
	switch k {
	case Asks:
		return "asks"
	case Bids:
		return "bids"
	default:
		return "unknown"
	}
}

// PriceLevel is an aggregated book row
//
// Price is the unscaled quote-per-base ratio shared by every member.
// MakerAmount and TakerAmount are raw integer sums over the members.
type PriceLevel struct {
	Price         amount.Amount
	MakerAmount   amount.Amount
	TakerAmount   amount.Amount
	VolumePercent float64
	Members       []swap.RawSwap
}

// IDs returns member swap ids in insertion order
func (l PriceLevel) IDs() []string {
	return lo.Map(l.Members, func(s swap.RawSwap, _ int) string {
		return s.ID
	})
}

// Relevant returns the summed amount of the resting offered (base) token
func (l PriceLevel) Relevant(kind Kind) amount.Amount {
	if kind == Bids {
		return l.TakerAmount
	}
	return l.MakerAmount
}

// Counter returns the summed amount of the quote token
func (l PriceLevel) Counter(kind Kind) amount.Amount {
	if kind == Bids {
		return l.MakerAmount
	}
	return l.TakerAmount
}

// HasProvider reports whether wallet created or filled any member of the level
func (l PriceLevel) HasProvider(wallet string) bool {
	return lo.ContainsBy(l.Members, func(s swap.RawSwap) bool {
		return swap.IsUserSwap(s, wallet)
	})
}

// Side is one ordered side of the book
type Side struct {
	Kind    Kind
	Levels  []PriceLevel
	Dropped []string // ids of malformed swaps left out of aggregation
}

// Len returns the number of levels
func (s Side) Len() int {
	return len(s.Levels)
}

// Best returns the top of book level
func (s Side) Best() (PriceLevel, bool) {
	if len(s.Levels) == 0 {
		return PriceLevel{}, false
	}
	return s.Levels[0], true
}

// Flatten returns every member swap in level order
func (s Side) Flatten() []swap.RawSwap {
	return lo.FlatMap(s.Levels, func(l PriceLevel, _ int) []swap.RawSwap {
		return l.Members
	})
}

// Total returns the summed relevant amount of the side
func (s Side) Total() amount.Amount {
	return lo.Reduce(s.Levels, func(acc amount.Amount, l PriceLevel, _ int) amount.Amount {
		return acc.Add(l.Relevant(s.Kind))
	}, amount.Zero)
}

// Spread returns |bestBid - bestAsk| / mid * 100, zero when either side is empty
func Spread(bids, asks Side) amount.Amount {
	bid, okBid := bids.Best()
	ask, okAsk := asks.Best()
	if !okBid || !okAsk {
		return amount.Zero
	}

	mid, err := ask.Price.Add(bid.Price).Div(amount.FromInt(2))
	if err != nil {
		return amount.Zero
	}
	ratio, err := bid.Price.Sub(ask.Price).Abs().Div(mid)
	if err != nil {
		return amount.Zero
	}
	return ratio.Mul(amount.FromInt(100))
}

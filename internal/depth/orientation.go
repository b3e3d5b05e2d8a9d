package depth

import (
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Inverted reports whether the fetched collections have to be swapped to match pair orientation
//
// In canonical orientation buyer makers offer the quote token and seller makers offer the base
// token. The first member of the first non-empty collection decides; with no members at all the
// orientation is canonical.
func Inverted(buyers, sellers []swap.RawSwap, pair swap.Pair) bool {
	collections := []struct {
		swaps []swap.RawSwap
		maker string
	}{
		{buyers, pair.Quote},
		{sellers, pair.Base},
	}

	for _, c := range collections {
		if len(c.swaps) == 0 {
			continue
		}
		return !swap.SameContract(c.swaps[0].Maker.Contract, c.maker)
	}
	return false
}

// NormalizeOrientation maps the fetched buyer/seller collections onto bids and asks and aggregates them
func NormalizeOrientation(buyers, sellers []swap.RawSwap, pair swap.Pair) (bids, asks Side, inverted bool) {
	inverted = Inverted(buyers, sellers, pair)
	if inverted {
		buyers, sellers = sellers, buyers
	}
	return Aggregate(buyers, pair, Bids), Aggregate(sellers, pair, Asks), inverted
}

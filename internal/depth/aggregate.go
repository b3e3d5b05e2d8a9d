package depth

import (
	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

var hundred = decimal.NewFromInt(100)

// AskComparator orders prices ascending
func AskComparator(a, b interface{}) int {
	return a.(amount.Amount).Cmp(b.(amount.Amount))
}

// BidComparator orders prices descending
func BidComparator(a, b interface{}) int {
	return b.(amount.Amount).Cmp(a.(amount.Amount))
}

func comparator(kind Kind) func(a, b interface{}) int {
	if kind == Bids {
		return BidComparator
	}
	return AskComparator
}

// Aggregate groups raw swaps sharing the same exact price into levels and annotates volume share
// Swaps with a zero base or quote amount are skipped and listed in Side.Dropped.
func Aggregate(raw []swap.RawSwap, pair swap.Pair, kind Kind) Side {
	side := Side{Kind: kind}
	tree := rbt.NewWith(comparator(kind))

	for _, s := range raw {
		price, err := swap.Price(s, pair)
		if err != nil {
			side.Dropped = append(side.Dropped, s.ID)
			continue
		}

		if v, found := tree.Get(price); found {
			level := v.(*PriceLevel)
			level.MakerAmount = level.MakerAmount.Add(s.Maker.Amount)
			level.TakerAmount = level.TakerAmount.Add(s.Taker.Amount)
			level.Members = append(level.Members, s)
			continue
		}
		tree.Put(price, &PriceLevel{
			Price:       price,
			MakerAmount: s.Maker.Amount,
			TakerAmount: s.Taker.Amount,
			Members:     []swap.RawSwap{s},
		})
	}

	side.Levels = make([]PriceLevel, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		side.Levels = append(side.Levels, *it.Value().(*PriceLevel))
	}

	return ApplyVolumeShare(side)
}

// ApplyVolumeShare returns a copy of side with VolumePercent set on every level
// Percentages are 100 * relevant / total; all zero when the total is zero.
func ApplyVolumeShare(side Side) Side {
	levels := make([]PriceLevel, len(side.Levels))
	copy(levels, side.Levels)
	side.Levels = levels

	total := side.Total().Decimal()
	for i := range levels {
		if total.IsZero() {
			levels[i].VolumePercent = 0
			continue
		}
		share := levels[i].Relevant(side.Kind).Decimal().Mul(hundred).DivRound(total, amount.DivisionPrecision)
		levels[i].VolumePercent = share.InexactFloat64()
	}
	return side
}

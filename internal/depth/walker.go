package depth

import (
	"errors"
	"fmt"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

// ErrLevelOutOfRange is returned when walking to a level the side does not have
var ErrLevelOutOfRange = errors.New("level index out of range")

// Balances wallet holdings in raw integer units
type Balances struct {
	Base  amount.Amount
	Quote amount.Amount
}

// Fill is the result of sweeping a side down to a level
// Amount is raw base units, Total raw quote units, Price the unscaled level price.
type Fill struct {
	Kind    Kind
	Price   amount.Amount
	Amount  amount.Amount
	Total   amount.Amount
	Clamped bool
}

// Walk sweeps levels 0..index of side and clamps the result to the wallet
//
// Sweeping asks spends quote: the fill is limited to what the quote balance can pay at the
// worst touched price. Sweeping bids spends base: the amount is limited to the base balance.
func Walk(side Side, index int, bal Balances) (Fill, error) {
	if index < 0 || index >= len(side.Levels) {
		return Fill{}, fmt.Errorf("%w: %d of %d %s levels", ErrLevelOutOfRange, index, len(side.Levels), side.Kind)
	}

	size := amount.Zero
	for _, level := range side.Levels[:index+1] {
		size = size.Add(level.Relevant(side.Kind))
	}

	fill := Fill{Kind: side.Kind, Price: side.Levels[index].Price, Amount: size}
	fill.Total = fill.Amount.Mul(fill.Price)

	switch side.Kind {
	case Asks:
		if fill.Total.GreaterThan(bal.Quote) {
			clamped, err := bal.Quote.Div(fill.Price)
			if err != nil {
				return Fill{}, fmt.Errorf("failed to clamp to quote balance: %w", err)
			}
			fill.Amount = clamped
			fill.Total = clamped.Mul(fill.Price)
			fill.Clamped = true
		}
	case Bids:
		if fill.Amount.GreaterThan(bal.Base) {
			fill.Amount = bal.Base
			fill.Total = bal.Base.Mul(fill.Price)
			fill.Clamped = true
		}
	}

	return fill, nil
}

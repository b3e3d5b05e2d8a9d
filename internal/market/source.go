package market

import (
	"context"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// Collection names one of the two pending swap collections kept per pair
type Collection int

const (
	Buyers Collection = iota
	Sellers
)

func (c Collection) String() string {
	if c == Sellers {
		return "sellers"
	}
	return "buyers"
}

// Source is the market data source
// Implementations read the swap contract and token contracts; the engine never does I/O itself.
type Source interface {
	// PendingSwaps returns the open swaps of one collection of pairName ("base/quote")
	PendingSwaps(ctx context.Context, pairName string, c Collection) ([]swap.RawSwap, error)

	// FilledSwaps returns filled swaps of pairName, most recent first
	FilledSwaps(ctx context.Context, pairName string, offset, limit int) ([]swap.RawSwap, error)

	// Balance returns the raw integer balance of wallet in contract
	Balance(ctx context.Context, wallet, contract string) (amount.Amount, error)

	// Decimals returns the token precision of contract
	Decimals(ctx context.Context, contract string) (int, error)

	// Symbol returns the token symbol of contract
	Symbol(ctx context.Context, contract string) (string, error)
}

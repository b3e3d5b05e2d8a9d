package market

import (
	"log/slog"
	"os"
	"time"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

const (
	testQuote  = "cx88fd7df7ddff82f7cc735c871dc519838cb235bb"
	testWallet = "hx7d5bdb5c4e3b0a8c1f6a0b8d3e2f1a4b5c6d7e8f"
)

var testNow = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPair() swap.Pair {
	return swap.NewPair(swap.NativeContract, testQuote)
}

func testSource() *MockSource {
	source := NewMockSource(7)
	source.SetToken(testQuote, "bnUSD", 18)
	source.SetBasePrice(swap.NativeContract, testQuote, 0.25)
	source.SetBalance(testWallet, swap.NativeContract, amount.MustParse("50000000000000000000"))
	source.SetBalance(testWallet, testQuote, amount.MustParse("10000000000000000000"))
	source.SetClock(func() time.Time { return testNow })
	return source
}

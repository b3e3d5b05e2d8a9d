package market

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// MockSource is a mock market data source
// For demonstration and testing only, generates random but reasonable swaps around a base price.
// Output is deterministic for a given seed, pair and clock.
type MockSource struct {
	// prices stores the unit price (quote per base) of each pair
	// key: "base/quote" (lowercase addresses)
	prices   map[string]decimal.Decimal
	decimals map[string]int
	symbols  map[string]string
	balances map[string]amount.Amount // key: "wallet:contract", raw units
	err      error

	seed    int64
	levels  int
	history int
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMockSource creates a mock source
func NewMockSource(seed int64) *MockSource {
	return &MockSource{
		prices:   make(map[string]decimal.Decimal),
		decimals: make(map[string]int),
		symbols:  make(map[string]string),
		balances: make(map[string]amount.Amount),
		seed:     seed,
		levels:   10,
		history:  50,
		now:      time.Now,
	}
}

// SetToken registers a token
func (m *MockSource) SetToken(contract, symbol string, decimals int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[strings.ToLower(contract)] = symbol
	m.decimals[strings.ToLower(contract)] = decimals
}

// SetBasePrice sets the unit price of base in quote
func (m *MockSource) SetBasePrice(base, quote string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[buildPairKey(base, quote)] = decimal.NewFromFloat(price)
}

// SetBalance sets the raw balance of wallet in contract
func (m *MockSource) SetBalance(wallet, contract string, raw amount.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[strings.ToLower(wallet)+":"+strings.ToLower(contract)] = raw
}

// SetError makes every call fail with err until cleared with nil
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetClock replaces the clock used for filled swap timestamps
func (m *MockSource) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// PendingSwaps generates open swaps for one collection of a pair
func (m *MockSource) PendingSwaps(ctx context.Context, pairName string, c Collection) ([]swap.RawSwap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, price, dec, err := m.lookup(ctx, pairName)
	if err != nil {
		return nil, err
	}

	rng := m.rng(pairName, c.String())
	swaps := make([]swap.RawSwap, 0, m.levels)

	for i := 0; i < m.levels; i++ {
		// Buyers sit below the price, sellers above it
		step := decimal.NewFromFloat(0.001*float64(i+1) + rng.Float64()*0.0005)
		levelPrice := price.Mul(decimal.NewFromInt(1).Add(step))
		if c == Buyers {
			levelPrice = price.Mul(decimal.NewFromInt(1).Sub(step))
		}

		base, quote := m.legs(rng, pair, levelPrice, dec)
		id := fmt.Sprintf("0x%x", int(c)*1000+i+1)
		s := swap.RawSwap{ID: id, Status: swap.StatusPending}

		if c == Buyers {
			s.Maker, s.Taker = quote, base
		} else {
			s.Maker, s.Taker = base, quote
		}
		swaps = append(swaps, s)
	}

	return swaps, nil
}

// FilledSwaps generates filled swaps, most recent first
func (m *MockSource) FilledSwaps(ctx context.Context, pairName string, offset, limit int) ([]swap.RawSwap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, price, dec, err := m.lookup(ctx, pairName)
	if err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid page offset %d limit %d", offset, limit)
	}

	rng := m.rng(pairName, "filled")
	now := m.now()
	swaps := make([]swap.RawSwap, 0, m.history)

	for i := 0; i < m.history; i++ {
		noise := decimal.NewFromFloat((rng.Float64() - 0.5) * 0.01)
		base, quote := m.legs(rng, pair, price.Mul(decimal.NewFromInt(1).Add(noise)), dec)

		s := swap.RawSwap{
			ID:        fmt.Sprintf("0x%x", 100000+m.history-i),
			Status:    swap.StatusSuccess,
			Timestamp: now.Add(-time.Duration(i) * 10 * time.Minute),
		}
		if rng.Intn(2) == 0 {
			s.Maker, s.Taker = quote, base
		} else {
			s.Maker, s.Taker = base, quote
		}
		swaps = append(swaps, s)
	}

	if offset >= len(swaps) {
		return []swap.RawSwap{}, nil
	}
	swaps = swaps[offset:]
	if limit > 0 && limit < len(swaps) {
		swaps = swaps[:limit]
	}
	return swaps, nil
}

// Balance returns the configured raw balance, zero when unset
func (m *MockSource) Balance(ctx context.Context, wallet, contract string) (amount.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return amount.Zero, err
	}
	return m.balances[strings.ToLower(wallet)+":"+strings.ToLower(contract)], nil
}

// Decimals returns the registered token precision
func (m *MockSource) Decimals(ctx context.Context, contract string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return 0, err
	}
	d, ok := m.decimals[strings.ToLower(contract)]
	if !ok {
		return 0, fmt.Errorf("unknown token %s", contract)
	}
	return d, nil
}

// Symbol returns the registered token symbol
func (m *MockSource) Symbol(ctx context.Context, contract string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(ctx); err != nil {
		return "", err
	}
	s, ok := m.symbols[strings.ToLower(contract)]
	if !ok {
		return "", fmt.Errorf("unknown token %s", contract)
	}
	return s, nil
}

func (m *MockSource) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.err
}

// lookup resolves a pair name to its price (supports bidirectional lookup) and decimals
func (m *MockSource) lookup(ctx context.Context, pairName string) (swap.Pair, decimal.Decimal, swap.Decimals, error) {
	if err := m.check(ctx); err != nil {
		return swap.Pair{}, decimal.Zero, swap.Decimals{}, err
	}

	parts := strings.Split(pairName, "/")
	if len(parts) != 2 {
		return swap.Pair{}, decimal.Zero, swap.Decimals{}, fmt.Errorf("invalid pair name %q", pairName)
	}
	pair := swap.NewPair(parts[0], parts[1])

	price, ok := m.prices[buildPairKey(pair.Base, pair.Quote)]
	if !ok {
		reverse, found := m.prices[buildPairKey(pair.Quote, pair.Base)]
		if !found || reverse.IsZero() {
			return swap.Pair{}, decimal.Zero, swap.Decimals{}, fmt.Errorf("no price configured for %s", pairName)
		}
		price = decimal.NewFromInt(1).DivRound(reverse, amount.DivisionPrecision)
	}

	dec := swap.Decimals{Base: m.tokenDecimals(pair.Base), Quote: m.tokenDecimals(pair.Quote)}
	return pair, price, dec, nil
}

func (m *MockSource) tokenDecimals(contract string) int {
	if d, ok := m.decimals[strings.ToLower(contract)]; ok {
		return d
	}
	return swap.NativeDecimals
}

// legs builds base and quote legs for a random size (1-100 tokens) at unit price
func (m *MockSource) legs(rng *rand.Rand, pair swap.Pair, price decimal.Decimal, dec swap.Decimals) (base, quote swap.Leg) {
	size := decimal.NewFromFloat(1 + rng.Float64()*99).Truncate(4)
	baseRaw := size.Shift(int32(dec.Base)).Truncate(0)
	quoteRaw := size.Mul(price).Shift(int32(dec.Quote)).Truncate(0)
	if quoteRaw.IsZero() {
		quoteRaw = decimal.NewFromInt(1)
	}

	base = swap.Leg{Contract: pair.Base, Amount: amount.New(baseRaw), Provider: mockProvider(rng)}
	quote = swap.Leg{Contract: pair.Quote, Amount: amount.New(quoteRaw), Provider: swap.EmptyProvider}
	return base, quote
}

func (m *MockSource) rng(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(p)))
	}
	return rand.New(rand.NewSource(m.seed ^ int64(h.Sum64())))
}

func mockProvider(rng *rand.Rand) string {
	return fmt.Sprintf("hx%040x", rng.Int63())
}

// buildPairKey builds the price lookup key
func buildPairKey(base, quote string) string {
	return strings.ToLower(base) + "/" + strings.ToLower(quote)
}

// DefaultMockSource creates a mock source with default ICON tokens and prices
func DefaultMockSource() *MockSource {
	source := NewMockSource(time.Now().UnixNano())

	source.SetToken(swap.NativeContract, swap.NativeSymbol, swap.NativeDecimals)
	source.SetToken("cx88fd7df7ddff82f7cc735c871dc519838cb235bb", "bnUSD", 18)
	source.SetToken("cxae3034235540b924dfcc1b45836c7dcfdb91f5a", "IUSDC", 6)

	// ICX/bnUSD = 0.25 bnUSD
	source.SetBasePrice(swap.NativeContract, "cx88fd7df7ddff82f7cc735c871dc519838cb235bb", 0.25)

	// ICX/IUSDC = 0.25 IUSDC
	source.SetBasePrice(swap.NativeContract, "cxae3034235540b924dfcc1b45836c7dcfdb91f5a", 0.25)

	return source
}

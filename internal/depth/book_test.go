package depth

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

const (
	testBase  = swap.NativeContract
	testQuote = "cx88fd7df7ddff82f7cc735c871dc519838cb235bb"
	testUser  = "hx7d5bdb5c4e3b0a8c1f6a0b8d3e2f1a4b5c6d7e8f"
	testOther = "hx1111111111111111111111111111111111111111"
)

func testPair() swap.Pair {
	return swap.NewPair(testBase, testQuote)
}

// sell creates a seller swap: maker offers base, wants quote
func sell(id string, base, quote int64) swap.RawSwap {
	return swap.RawSwap{
		ID:     id,
		Maker:  swap.Leg{Contract: testBase, Amount: amount.FromInt(base), Provider: testOther},
		Taker:  swap.Leg{Contract: testQuote, Amount: amount.FromInt(quote), Provider: swap.EmptyProvider},
		Status: swap.StatusPending,
	}
}

// buy creates a buyer swap: maker offers quote, wants base
func buy(id string, base, quote int64) swap.RawSwap {
	return swap.RawSwap{
		ID:     id,
		Maker:  swap.Leg{Contract: testQuote, Amount: amount.FromInt(quote), Provider: testOther},
		Taker:  swap.Leg{Contract: testBase, Amount: amount.FromInt(base), Provider: swap.EmptyProvider},
		Status: swap.StatusPending,
	}
}

func sumMaker(swaps []swap.RawSwap) amount.Amount {
	total := amount.Zero
	for _, s := range swaps {
		total = total.Add(s.Maker.Amount)
	}
	return total
}

func sumTaker(swaps []swap.RawSwap) amount.Amount {
	total := amount.Zero
	for _, s := range swaps {
		total = total.Add(s.Taker.Amount)
	}
	return total
}

func TestAggregate_Asks(t *testing.T) {
	raw := []swap.RawSwap{
		sell("a1", 10, 20),
		sell("a2", 5, 15),
		sell("a3", 4, 8),
		sell("a4", 0, 5),
	}

	side := Aggregate(raw, testPair(), Asks)

	if side.Len() != 2 {
		t.Fatalf("levels = %d, want 2", side.Len())
	}
	if len(side.Dropped) != 1 || side.Dropped[0] != "a4" {
		t.Errorf("Dropped = %v, want [a4]", side.Dropped)
	}

	first := side.Levels[0]
	if !first.Price.Equal(amount.FromInt(2)) {
		t.Errorf("Levels[0].Price = %s, want 2", first.Price)
	}
	if !first.MakerAmount.Equal(amount.FromInt(14)) {
		t.Errorf("Levels[0].MakerAmount = %s, want 14", first.MakerAmount)
	}
	if !first.TakerAmount.Equal(amount.FromInt(28)) {
		t.Errorf("Levels[0].TakerAmount = %s, want 28", first.TakerAmount)
	}
	if ids := first.IDs(); len(ids) != 2 || ids[0] != "a1" || ids[1] != "a3" {
		t.Errorf("Levels[0].IDs = %v, want [a1 a3]", ids)
	}
	if !side.Levels[1].Price.Equal(amount.FromInt(3)) {
		t.Errorf("Levels[1].Price = %s, want 3", side.Levels[1].Price)
	}

	wantShare := 100 * 14.0 / 19.0
	if math.Abs(first.VolumePercent-wantShare) > 1e-6 {
		t.Errorf("Levels[0].VolumePercent = %f, want %f", first.VolumePercent, wantShare)
	}
}

func TestAggregate_Bids(t *testing.T) {
	raw := []swap.RawSwap{
		buy("b1", 10, 20),
		buy("b2", 3, 9),
		buy("b3", 2, 4),
	}

	side := Aggregate(raw, testPair(), Bids)

	if side.Len() != 2 {
		t.Fatalf("levels = %d, want 2", side.Len())
	}
	if !side.Levels[0].Price.Equal(amount.FromInt(3)) {
		t.Errorf("Levels[0].Price = %s, want 3", side.Levels[0].Price)
	}
	if !side.Levels[1].Relevant(Bids).Equal(amount.FromInt(12)) {
		t.Errorf("Levels[1] relevant = %s, want 12", side.Levels[1].Relevant(Bids))
	}
	if !side.Levels[1].Counter(Bids).Equal(amount.FromInt(24)) {
		t.Errorf("Levels[1] counter = %s, want 24", side.Levels[1].Counter(Bids))
	}
}

func randomBook(rng *rand.Rand, n int) (buyers, sellers []swap.RawSwap) {
	for i := 0; i < n; i++ {
		base := int64(rng.Intn(50) + 1)
		quote := int64(rng.Intn(50) + 1)
		if rng.Intn(10) == 0 {
			base = 0
		}
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		if i%2 == 0 {
			buyers = append(buyers, buy("b"+id, base, quote))
		} else {
			sellers = append(sellers, sell("s"+id, base, quote))
		}
	}
	return buyers, sellers
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		buyers, sellers := randomBook(rng, 60)

		for _, tc := range []struct {
			raw  []swap.RawSwap
			kind Kind
		}{
			{buyers, Bids},
			{sellers, Asks},
		} {
			side := Aggregate(tc.raw, testPair(), tc.kind)

			// Conservation over non-dropped swaps
			dropped := make(map[string]bool)
			for _, id := range side.Dropped {
				dropped[id] = true
			}
			var kept []swap.RawSwap
			for _, s := range tc.raw {
				if !dropped[s.ID] {
					kept = append(kept, s)
				}
			}
			levelMaker, levelTaker := amount.Zero, amount.Zero
			for _, l := range side.Levels {
				levelMaker = levelMaker.Add(l.MakerAmount)
				levelTaker = levelTaker.Add(l.TakerAmount)
			}
			if !levelMaker.Equal(sumMaker(kept)) {
				t.Errorf("%s maker sum = %s, want %s", tc.kind, levelMaker, sumMaker(kept))
			}
			if !levelTaker.Equal(sumTaker(kept)) {
				t.Errorf("%s taker sum = %s, want %s", tc.kind, levelTaker, sumTaker(kept))
			}

			// Sort order
			for i := 1; i < side.Len(); i++ {
				cmp := side.Levels[i-1].Price.Cmp(side.Levels[i].Price)
				if tc.kind == Asks && cmp >= 0 {
					t.Errorf("asks not ascending at %d: %s >= %s", i, side.Levels[i-1].Price, side.Levels[i].Price)
				}
				if tc.kind == Bids && cmp <= 0 {
					t.Errorf("bids not descending at %d: %s <= %s", i, side.Levels[i-1].Price, side.Levels[i].Price)
				}
			}

			// Volume share totals
			if side.Len() > 0 {
				var total float64
				for _, l := range side.Levels {
					total += l.VolumePercent
				}
				if math.Abs(total-100) > 1e-6 {
					t.Errorf("%s volume share sum = %f, want 100", tc.kind, total)
				}
			}

			// Idempotence
			again := Aggregate(side.Flatten(), testPair(), tc.kind)
			assertSameSide(t, again, side)
		}
	}
}

func assertSameSide(t *testing.T, got, want Side) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("levels = %d, want %d", got.Len(), want.Len())
	}
	for i := range want.Levels {
		g, w := got.Levels[i], want.Levels[i]
		if !g.Price.Equal(w.Price) || !g.MakerAmount.Equal(w.MakerAmount) || !g.TakerAmount.Equal(w.TakerAmount) {
			t.Errorf("Levels[%d] = (%s, %s, %s), want (%s, %s, %s)", i,
				g.Price, g.MakerAmount, g.TakerAmount, w.Price, w.MakerAmount, w.TakerAmount)
		}
		if g.VolumePercent != w.VolumePercent {
			t.Errorf("Levels[%d].VolumePercent = %f, want %f", i, g.VolumePercent, w.VolumePercent)
		}
		gIDs, wIDs := g.IDs(), w.IDs()
		if len(gIDs) != len(wIDs) {
			t.Errorf("Levels[%d].IDs = %v, want %v", i, gIDs, wIDs)
			continue
		}
		for j := range wIDs {
			if gIDs[j] != wIDs[j] {
				t.Errorf("Levels[%d].IDs = %v, want %v", i, gIDs, wIDs)
				break
			}
		}
	}
}

func TestApplyVolumeShare_ZeroTotal(t *testing.T) {
	side := Side{
		Kind: Asks,
		Levels: []PriceLevel{
			{Price: amount.FromInt(1), MakerAmount: amount.Zero, TakerAmount: amount.FromInt(3), VolumePercent: 50},
			{Price: amount.FromInt(2), MakerAmount: amount.Zero, TakerAmount: amount.FromInt(4), VolumePercent: 50},
		},
	}

	got := ApplyVolumeShare(side)
	for i, l := range got.Levels {
		if l.VolumePercent != 0 {
			t.Errorf("Levels[%d].VolumePercent = %f, want 0", i, l.VolumePercent)
		}
	}
	// Input is not mutated
	if side.Levels[0].VolumePercent != 50 {
		t.Error("ApplyVolumeShare should not mutate its input")
	}

	empty := ApplyVolumeShare(Side{Kind: Bids})
	if empty.Len() != 0 {
		t.Errorf("empty side levels = %d, want 0", empty.Len())
	}
}

func TestNormalizeOrientation(t *testing.T) {
	pair := testPair()

	tests := []struct {
		name         string
		buyers       []swap.RawSwap
		sellers      []swap.RawSwap
		wantInverted bool
		wantBids     int
		wantAsks     int
	}{
		{
			name:     "canonical",
			buyers:   []swap.RawSwap{buy("b1", 10, 20), buy("b2", 10, 30)},
			sellers:  []swap.RawSwap{sell("s1", 10, 40)},
			wantBids: 2,
			wantAsks: 1,
		},
		{
			name:         "collections swapped",
			buyers:       []swap.RawSwap{sell("s1", 10, 40)},
			sellers:      []swap.RawSwap{buy("b1", 10, 20), buy("b2", 10, 30)},
			wantInverted: true,
			wantBids:     2,
			wantAsks:     1,
		},
		{
			name:     "only sellers canonical",
			sellers:  []swap.RawSwap{sell("s1", 10, 40)},
			wantAsks: 1,
		},
		{
			name:         "only sellers swapped",
			sellers:      []swap.RawSwap{buy("b1", 10, 20)},
			wantInverted: true,
			wantBids:     1,
		},
		{
			name: "both empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bids, asks, inverted := NormalizeOrientation(tt.buyers, tt.sellers, pair)
			if inverted != tt.wantInverted {
				t.Errorf("inverted = %v, want %v", inverted, tt.wantInverted)
			}
			if bids.Len() != tt.wantBids {
				t.Errorf("bids = %d, want %d", bids.Len(), tt.wantBids)
			}
			if asks.Len() != tt.wantAsks {
				t.Errorf("asks = %d, want %d", asks.Len(), tt.wantAsks)
			}
			if bids.Kind != Bids || asks.Kind != Asks {
				t.Error("sides returned with wrong kind")
			}
		})
	}
}

func TestNormalizeOrientation_Flip(t *testing.T) {
	buyers := []swap.RawSwap{buy("b1", 10, 20)}
	sellers := []swap.RawSwap{sell("s1", 10, 40)}

	// Viewing the pair the other way round turns the same collections around
	_, _, inverted := NormalizeOrientation(buyers, sellers, testPair())
	if inverted {
		t.Error("canonical pair should not be inverted")
	}
	_, _, inverted = NormalizeOrientation(buyers, sellers, testPair().Flip())
	if !inverted {
		t.Error("flipped pair should be inverted")
	}
}

func TestSpread(t *testing.T) {
	bids := Aggregate([]swap.RawSwap{buy("b1", 10, 20)}, testPair(), Bids)
	asks := Aggregate([]swap.RawSwap{sell("s1", 10, 30)}, testPair(), Asks)

	got := Spread(bids, asks)
	if !got.Equal(amount.FromInt(40)) {
		t.Errorf("Spread = %s, want 40", got)
	}

	if got := Spread(Side{Kind: Bids}, asks); !got.IsZero() {
		t.Errorf("Spread with empty bids = %s, want 0", got)
	}
}

func TestPriceLevel_HasProvider(t *testing.T) {
	mine := sell("s1", 10, 20)
	mine.Maker.Provider = testUser
	side := Aggregate([]swap.RawSwap{sell("s0", 5, 10), mine, sell("s2", 1, 5)}, testPair(), Asks)

	if !side.Levels[0].HasProvider(testUser) {
		t.Error("level with the user's swap should report HasProvider")
	}
	if side.Levels[1].HasProvider(testUser) {
		t.Error("level without the user's swap should not report HasProvider")
	}
}

func TestWalk(t *testing.T) {
	asks := Aggregate([]swap.RawSwap{sell("s1", 10, 20), sell("s2", 5, 15)}, testPair(), Asks)
	bids := Aggregate([]swap.RawSwap{buy("b1", 10, 20)}, testPair(), Bids)
	deep := Aggregate([]swap.RawSwap{sell("s1", 100, 100)}, testPair(), Asks)

	tests := []struct {
		name        string
		side        Side
		index       int
		balances    Balances
		wantPrice   int64
		wantAmount  int64
		wantTotal   int64
		wantClamped bool
	}{
		{
			name:       "asks within balance",
			side:       asks,
			index:      1,
			balances:   Balances{Base: amount.Zero, Quote: amount.FromInt(1000)},
			wantPrice:  3,
			wantAmount: 15,
			wantTotal:  45,
		},
		{
			name:        "asks clamped by quote balance",
			side:        deep,
			index:       0,
			balances:    Balances{Base: amount.Zero, Quote: amount.FromInt(50)},
			wantPrice:   1,
			wantAmount:  50,
			wantTotal:   50,
			wantClamped: true,
		},
		{
			name:        "bids clamped by base balance",
			side:        bids,
			index:       0,
			balances:    Balances{Base: amount.FromInt(4), Quote: amount.Zero},
			wantPrice:   2,
			wantAmount:  4,
			wantTotal:   8,
			wantClamped: true,
		},
		{
			name:       "bids within balance",
			side:       bids,
			index:      0,
			balances:   Balances{Base: amount.FromInt(100), Quote: amount.Zero},
			wantPrice:  2,
			wantAmount: 10,
			wantTotal:  20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill, err := Walk(tt.side, tt.index, tt.balances)
			if err != nil {
				t.Fatalf("Walk failed: %v", err)
			}
			if !fill.Price.Equal(amount.FromInt(tt.wantPrice)) {
				t.Errorf("Price = %s, want %d", fill.Price, tt.wantPrice)
			}
			if !fill.Amount.Equal(amount.FromInt(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %d", fill.Amount, tt.wantAmount)
			}
			if !fill.Total.Equal(amount.FromInt(tt.wantTotal)) {
				t.Errorf("Total = %s, want %d", fill.Total, tt.wantTotal)
			}
			if fill.Clamped != tt.wantClamped {
				t.Errorf("Clamped = %v, want %v", fill.Clamped, tt.wantClamped)
			}
		})
	}
}

func TestWalk_OutOfRange(t *testing.T) {
	asks := Aggregate([]swap.RawSwap{sell("s1", 10, 20)}, testPair(), Asks)

	for _, index := range []int{-1, 1} {
		if _, err := Walk(asks, index, Balances{}); !errors.Is(err, ErrLevelOutOfRange) {
			t.Errorf("Walk(%d) error = %v, want ErrLevelOutOfRange", index, err)
		}
	}
}

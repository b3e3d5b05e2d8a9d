package quote

import (
	"errors"
	"time"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/swap"
)

// ErrEmptyPriceWindow is returned when no admissible price exists in the history window
var ErrEmptyPriceWindow = errors.New("no price available")

// DefaultOutlierFactor is the envelope width around the reference price
const DefaultOutlierFactor = 3

// Estimator derives a representative market price from filled swap history
//
// History is read most recent first. The first admissible price becomes the reference: later
// prices more than OutlierFactor times above or below it are ignored, and reading stops at the
// first swap from an earlier calendar day than the reference swap. The result is the mean of
// accepted prices.
type Estimator struct {
	OutlierFactor amount.Amount
	Location      *time.Location // time zone that defines calendar days
}

// NewEstimator creates an estimator
func NewEstimator(outlierFactor amount.Amount, loc *time.Location) *Estimator {
	if outlierFactor.Sign() <= 0 {
		outlierFactor = amount.FromInt(DefaultOutlierFactor)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Estimator{
		OutlierFactor: outlierFactor,
		Location:      loc,
	}
}

// DefaultEstimator creates an estimator with a 3x envelope and UTC days
func DefaultEstimator() *Estimator {
	return NewEstimator(amount.FromInt(DefaultOutlierFactor), time.UTC)
}

// MarketPrice estimates the unit price (quote token per base token) of pair
func (e *Estimator) MarketPrice(history []swap.RawSwap, pair swap.Pair, dec swap.Decimals) (amount.Amount, error) {
	var (
		prices      []amount.Amount
		reference   amount.Amount
		anchor      string
		initialized bool
	)

	for _, s := range history {
		price, err := swap.UnitPrice(s, pair, dec)
		if err != nil || price.IsZero() {
			// Zero or malformed prints are data artifacts
			continue
		}

		if initialized {
			if price.GreaterThan(reference.Mul(e.OutlierFactor)) {
				continue
			}
			if low, err := reference.Div(e.OutlierFactor); err == nil && price.LessThan(low) {
				continue
			}
			if e.day(s.Timestamp) != anchor {
				break
			}
		}

		prices = append(prices, price)
		if !initialized {
			reference = price
			anchor = e.day(s.Timestamp)
			initialized = true
		}
	}

	return mean(prices)
}

func (e *Estimator) day(t time.Time) string {
	return t.In(e.Location).Format(time.DateOnly)
}

func mean(prices []amount.Amount) (amount.Amount, error) {
	if len(prices) == 0 {
		return amount.Zero, ErrEmptyPriceWindow
	}
	total := amount.Zero
	for _, p := range prices {
		total = total.Add(p)
	}
	return total.Div(amount.FromInt(int64(len(prices))))
}

// LastPrice returns the unit price of the most recent filled swap
func LastPrice(history []swap.RawSwap, pair swap.Pair, dec swap.Decimals) (amount.Amount, error) {
	if len(history) == 0 {
		return amount.Zero, ErrEmptyPriceWindow
	}
	return swap.UnitPrice(history[0], pair, dec)
}

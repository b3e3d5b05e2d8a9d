package quote

import (
	"fmt"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

// Deviation classifies an order price against the market price
type Deviation int

const (
	Fair Deviation = iota
	TooLow
	TooHigh
)

func (d Deviation) String() string {
	switch d {
	case TooLow:
		return "too low"
	case TooHigh:
		return "too high"
	default:
		return "fair"
	}
}

// Bounds price deviation thresholds
type Bounds struct {
	Low  amount.Amount // price below market / Low is too low
	High amount.Amount // price above market * High is too high
}

// DefaultBounds returns the 1.5 / 1.3 thresholds
func DefaultBounds() Bounds {
	return Bounds{
		Low:  amount.MustParse("1.5"),
		High: amount.MustParse("1.3"),
	}
}

// CheckPrice compares price with the market price; without a market price every price is fair
func CheckPrice(price amount.Amount, market amount.NullAmount, b Bounds) Deviation {
	if !market.Valid || market.Amount.IsZero() {
		return Fair
	}
	if low, err := market.Amount.Div(b.Low); err == nil && price.LessThan(low) {
		return TooLow
	}
	if price.GreaterThan(market.Amount.Mul(b.High)) {
		return TooHigh
	}
	return Fair
}

// Warning returns a confirmation message for a deviating price, "" when fair
func Warning(price amount.Amount, market amount.NullAmount, b Bounds) string {
	d := CheckPrice(price, market, b)
	switch d {
	case TooLow:
		return fmt.Sprintf("swap price %s seems much lower than the market price %s", price, market.Amount)
	case TooHigh:
		return fmt.Sprintf("swap price %s seems much higher than the market price %s", price, market.Amount)
	}
	return ""
}

// DisplayPrice returns a/b truncated to precision
// Division by zero is returned as amount.ErrDivisionByZero; callers show an undefined marker.
func DisplayPrice(a, b amount.Amount, precision int) (amount.Amount, error) {
	p, err := a.Div(b)
	if err != nil {
		return amount.Zero, err
	}
	return p.Truncate(precision), nil
}

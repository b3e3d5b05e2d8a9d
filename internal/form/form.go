package form

import (
	"errors"
	"fmt"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

// DefaultPrecision is the number of fractional digits kept in form fields
const DefaultPrecision = 7

var (
	// ErrInvalidFieldEdit is returned when total is edited while price is unset or zero.
	// The returned form is still valid, with amount left unchanged.
	ErrInvalidFieldEdit = errors.New("cannot derive amount without a price")
	// ErrIncompleteForm is returned when an order is drafted from a form missing amount or total
	ErrIncompleteForm = errors.New("incomplete order form")
)

// Field is one of the linked form fields
type Field int

const (
	Price Field = iota
	Amount
	Total
)

func (f Field) String() string {
	switch f {
	case Price:
		return "price"
	case Amount:
		return "amount"
	case Total:
		return "total"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Form keeps price, amount and total consistent with total = price * amount
//
// Editing price or amount recomputes total, editing total recomputes amount.
// Price is never derived. Derived values are truncated to Precision digits.
type Form struct {
	Price     amount.NullAmount
	Amount    amount.NullAmount
	Total     amount.NullAmount
	Precision int
}

// New creates an empty form
func New(precision int) Form {
	return Form{Precision: precision}
}

// Get returns the value of field
func (f Form) Get(field Field) amount.NullAmount {
	switch field {
	case Price:
		return f.Price
	case Amount:
		return f.Amount
	case Total:
		return f.Total
	}
	return amount.NullAmount{}
}

// Set applies an edit of field and recomputes the dependent field
func (f Form) Set(field Field, v amount.NullAmount) (Form, error) {
	switch field {
	case Price:
		f.Price = v
		return f.deriveTotal(), nil
	case Amount:
		f.Amount = v
		return f.deriveTotal(), nil
	case Total:
		f.Total = v
		if !v.Valid {
			return f, nil
		}
		if !f.Price.Valid || f.Price.Amount.IsZero() {
			return f, ErrInvalidFieldEdit
		}
		a, err := v.Amount.Div(f.Price.Amount)
		if err != nil {
			return f, err
		}
		f.Amount = amount.Some(a.Truncate(f.Precision))
		return f, nil
	}
	return f, fmt.Errorf("unknown form field %s", field)
}

func (f Form) deriveTotal() Form {
	if !f.Price.Valid || !f.Amount.Valid {
		return f
	}
	f.Total = amount.Some(f.Price.Amount.Mul(f.Amount.Amount).Truncate(f.Precision))
	return f
}

// Fill sets all three fields at once, truncated, without deriving anything
func (f Form) Fill(price, size, total amount.Amount) Form {
	f.Price = amount.Some(price.Truncate(f.Precision))
	f.Amount = amount.Some(size.Truncate(f.Precision))
	f.Total = amount.Some(total.Truncate(f.Precision))
	return f
}

// Clear unsets every field
func (f Form) Clear() Form {
	return New(f.Precision)
}

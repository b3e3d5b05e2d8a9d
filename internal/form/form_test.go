package form

import (
	"errors"
	"testing"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

func some(s string) amount.NullAmount {
	return amount.Some(amount.MustParse(s))
}

func mustSet(t *testing.T, f Form, field Field, v amount.NullAmount) Form {
	t.Helper()
	f, err := f.Set(field, v)
	if err != nil {
		t.Fatalf("Set(%s, %s) failed: %v", field, v, err)
	}
	return f
}

func assertField(t *testing.T, f Form, field Field, want amount.NullAmount) {
	t.Helper()
	if got := f.Get(field); !got.Equal(want) {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestSet_RoundTrip(t *testing.T) {
	f := New(DefaultPrecision)

	f = mustSet(t, f, Price, some("2"))
	f = mustSet(t, f, Amount, some("3"))
	assertField(t, f, Total, some("6"))

	f = mustSet(t, f, Total, some("10"))
	assertField(t, f, Amount, some("5"))
	assertField(t, f, Price, some("2"))
}

func TestSet_PriceEditRecomputesTotal(t *testing.T) {
	f := New(DefaultPrecision)
	f = mustSet(t, f, Amount, some("4"))
	assertField(t, f, Total, amount.NullAmount{})

	f = mustSet(t, f, Price, some("1.5"))
	assertField(t, f, Total, some("6"))
	assertField(t, f, Amount, some("4"))
}

func TestSet_TotalWithoutPrice(t *testing.T) {
	tests := []struct {
		name  string
		price amount.NullAmount
	}{
		{"unset price", amount.NullAmount{}},
		{"zero price", some("0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(DefaultPrecision)
			f.Price = tt.price
			f.Amount = some("3")

			got, err := f.Set(Total, some("10"))
			if !errors.Is(err, ErrInvalidFieldEdit) {
				t.Errorf("Set error = %v, want ErrInvalidFieldEdit", err)
			}
			assertField(t, got, Amount, some("3"))
			assertField(t, got, Total, some("10"))
		})
	}
}

func TestSet_ClearTotal(t *testing.T) {
	f := New(DefaultPrecision)
	f = mustSet(t, f, Price, some("2"))
	f = mustSet(t, f, Amount, some("3"))

	f = mustSet(t, f, Total, amount.NullAmount{})
	assertField(t, f, Total, amount.NullAmount{})
	assertField(t, f, Amount, some("3"))
}

func TestSet_ZeroIsNotUnset(t *testing.T) {
	f := New(DefaultPrecision)
	f = mustSet(t, f, Price, some("2"))
	f = mustSet(t, f, Amount, some("0"))

	if !f.Total.Valid {
		t.Fatal("Total should be set when amount is an explicit zero")
	}
	if !f.Total.IsZero() {
		t.Errorf("Total = %s, want 0", f.Total)
	}
}

func TestSet_Truncates(t *testing.T) {
	f := New(DefaultPrecision)
	f = mustSet(t, f, Price, some("3"))
	f = mustSet(t, f, Total, some("1"))
	assertField(t, f, Amount, some("0.3333333"))

	g := New(DefaultPrecision)
	g = mustSet(t, g, Price, some("0.33333339"))
	g = mustSet(t, g, Amount, some("3"))
	assertField(t, g, Total, some("1.0000001"))
}

func TestSet_UnknownField(t *testing.T) {
	if _, err := New(DefaultPrecision).Set(Field(9), some("1")); err == nil {
		t.Error("Set should fail for an unknown field")
	}
}

func TestFill(t *testing.T) {
	f := New(DefaultPrecision).Fill(amount.MustParse("1.123456789"), amount.FromInt(2), amount.MustParse("2.246913578"))
	assertField(t, f, Price, some("1.1234567"))
	assertField(t, f, Amount, some("2"))
	assertField(t, f, Total, some("2.2469135"))

	if c := f.Clear(); c.Price.Valid || c.Amount.Valid || c.Total.Valid {
		t.Error("Clear should unset every field")
	}
}

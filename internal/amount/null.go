package amount

// NullAmount is an optional Amount
// An unset value (Valid=false) is distinct from an explicit zero.
type NullAmount struct {
	Amount Amount
	Valid  bool
}

// Some returns a set NullAmount
func Some(a Amount) NullAmount {
	return NullAmount{Amount: a, Valid: true}
}

// IsZero reports whether the value is set and equal to zero
func (n NullAmount) IsZero() bool {
	return n.Valid && n.Amount.IsZero()
}

// Truncate truncates the value when set
func (n NullAmount) Truncate(places int) NullAmount {
	if !n.Valid {
		return n
	}
	return Some(n.Amount.Truncate(places))
}

// Equal reports whether both are unset, or both set with equal amounts
func (n NullAmount) Equal(o NullAmount) bool {
	if n.Valid != o.Valid {
		return false
	}
	return !n.Valid || n.Amount.Equal(o.Amount)
}

// String returns "" when unset
func (n NullAmount) String() string {
	if !n.Valid {
		return ""
	}
	return n.Amount.String()
}

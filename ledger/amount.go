package ledger

import (
	"github.com/shopspring/decimal"
)

// Amount is a fixed-point value used for quantities, prices and monetary
// amounts. The zero value is 0.
type Amount struct {
	value decimal.Decimal
}

// newDecimal is a convenient factory for decimal.Decimal.
func newDecimal[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// NewAmount builds an Amount from a numeric value.
func NewAmount[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) Amount {
	return Amount{value: newDecimal(value)}
}

// ParseAmount parses the decimal string representation of an amount.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: d}, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err.Error())
	}
	return a
}

func (a Amount) Plus(b Amount) Amount  { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Minus(b Amount) Amount { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Times(b Amount) Amount { return Amount{value: a.value.Mul(b.value)} }
func (a Amount) Div(b Amount) Amount   { return Amount{value: a.value.Div(b.value)} }
func (a Amount) Abs() Amount           { return Amount{value: a.value.Abs()} }
func (a Amount) Neg() Amount           { return Amount{value: a.value.Neg()} }

// Round returns the amount rounded half away from zero to the given number
// of fraction digits.
func (a Amount) Round(digits int) Amount { return Amount{value: a.value.Round(int32(digits))} }

func (a Amount) Eq(b Amount) bool  { return a.value.Equal(b.value) }
func (a Amount) Gt(b Amount) bool  { return a.value.GreaterThan(b.value) }
func (a Amount) Lt(b Amount) bool  { return a.value.LessThan(b.value) }
func (a Amount) Gte(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }
func (a Amount) Lte(b Amount) bool { return a.value.LessThanOrEqual(b.value) }

func (a Amount) IsZero() bool     { return a.value.IsZero() }
func (a Amount) IsPositive() bool { return a.value.IsPositive() }
func (a Amount) IsNegative() bool { return a.value.IsNegative() }

// String returns the plain decimal representation of the amount.
func (a Amount) String() string { return a.value.String() }

// Fixed returns the amount formatted with exactly the given number of
// fraction digits.
func (a Amount) Fixed(digits int) string { return a.value.StringFixed(int32(digits)) }

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.value }

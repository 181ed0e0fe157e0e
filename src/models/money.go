package models

import (
	"database/sql/driver"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a nullable decimal used for transfer values and their USD
// equivalents. Raw exports contain unparsable numeric cells; those become
// an invalid Money which downstream sums skip instead of treating as zero.
// The zero value is null.
type Money struct {
	decimal.Decimal
	Valid bool
}

// MoneyFromDecimal wraps a decimal in a valid Money.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Decimal: d, Valid: true}
}

// MoneyFromInt creates a valid Money from an integer amount.
func MoneyFromInt(i int64) Money {
	return Money{Decimal: decimal.NewFromInt(i), Valid: true}
}

// MoneyFromFloat creates a valid Money from a float amount.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// ParseMoney parses a numeric cell from a raw export. Currency formatting
// ("$1,234.56") is stripped first. Empty or unparsable cells yield a null
// Money rather than an error.
func ParseMoney(s string) Money {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Money{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Decimal: d, Valid: true}
}

// Neg returns the negated amount. Null stays null.
func (m Money) Neg() Money {
	if !m.Valid {
		return m
	}
	return Money{Decimal: m.Decimal.Neg(), Valid: true}
}

// Abs returns the absolute amount. Null stays null.
func (m Money) Abs() Money {
	if !m.Valid {
		return m
	}
	return Money{Decimal: m.Decimal.Abs(), Valid: true}
}

// Mul multiplies by a plain decimal. Null stays null.
func (m Money) Mul(d decimal.Decimal) Money {
	if !m.Valid {
		return m
	}
	return Money{Decimal: m.Decimal.Mul(d), Valid: true}
}

// IsZero reports whether the amount is a valid zero. A null Money is not
// zero; the merger keeps rows whose value failed to parse.
func (m Money) IsZero() bool {
	return m.Valid && m.Decimal.IsZero()
}

// Equal reports value equality; two nulls are equal.
func (m Money) Equal(o Money) bool {
	if m.Valid != o.Valid {
		return false
	}
	if !m.Valid {
		return true
	}
	return m.Decimal.Equal(o.Decimal)
}

// AccumulateInto adds the amount into sum when valid, mirroring how the
// export sums skip missing cells.
func (m Money) AccumulateInto(sum decimal.Decimal) decimal.Decimal {
	if !m.Valid {
		return sum
	}
	return sum.Add(m.Decimal)
}

// String renders the amount for CSV output; null renders empty.
func (m Money) String() string {
	if !m.Valid {
		return ""
	}
	return m.Decimal.String()
}

// MarshalJSON outputs a JSON number, or null for a missing amount.
func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers, quoted numbers and null.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money{}
		return nil
	}
	if err := m.Decimal.UnmarshalJSON(data); err != nil {
		return err
	}
	m.Valid = true
	return nil
}

// Scan implements sql.Scanner, reading REAL/TEXT columns; NULL becomes null.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Money{}
		return nil
	}
	if err := m.Decimal.Scan(src); err != nil {
		return err
	}
	m.Valid = true
	return nil
}

// Value implements driver.Valuer for database writes.
func (m Money) Value() (driver.Value, error) {
	if !m.Valid {
		return nil, nil
	}
	f, _ := m.Decimal.Float64()
	return f, nil
}

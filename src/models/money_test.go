package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney_CurrencyFormatting(t *testing.T) {
	m := ParseMoney("$1,234.56")
	if !m.Valid {
		t.Fatal("expected valid money")
	}
	if !m.Decimal.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("expected 1234.56, got %s", m.Decimal)
	}
}

func TestParseMoney_UnparsableBecomesNull(t *testing.T) {
	for _, input := range []string{"", "   ", "n/a", "abc", "--"} {
		if m := ParseMoney(input); m.Valid {
			t.Errorf("expected %q to parse as null, got %s", input, m.Decimal)
		}
	}
}

func TestMoney_NullPropagation(t *testing.T) {
	var null Money
	if null.Neg().Valid || null.Abs().Valid || null.Mul(decimal.NewFromInt(2)).Valid {
		t.Error("operations on null money must stay null")
	}
	if null.IsZero() {
		t.Error("null money is missing, not zero")
	}
}

func TestMoney_AccumulateSkipsNull(t *testing.T) {
	sum := decimal.Zero
	sum = MoneyFromInt(10).AccumulateInto(sum)
	sum = Money{}.AccumulateInto(sum)
	sum = MoneyFromInt(-3).AccumulateInto(sum)
	if !sum.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected 7, got %s", sum)
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(MoneyFromFloat(1.5))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1.5" {
		t.Errorf("expected 1.5, got %s", b)
	}

	b, err = json.Marshal(Money{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "null" {
		t.Errorf("expected null, got %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("null"), &m); err != nil {
		t.Fatal(err)
	}
	if m.Valid {
		t.Error("expected null after unmarshaling JSON null")
	}
}

func TestMoney_StringRendersNullEmpty(t *testing.T) {
	if s := (Money{}).String(); s != "" {
		t.Errorf("expected empty string for null money, got %q", s)
	}
	if s := MoneyFromInt(-12).String(); s != "-12" {
		t.Errorf("expected -12, got %q", s)
	}
}

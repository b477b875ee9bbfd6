package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyCreation(t *testing.T) {
	t.Run("NewMoney", func(t *testing.T) {
		m := NewMoney(10, 50)
		if m.ToCents() != 1050 {
			t.Errorf("Expected 1050 cents, got %d", m.ToCents())
		}
	})

	t.Run("Dollars", func(t *testing.T) {
		m := Dollars(100)
		if m.ToCents() != 10000 {
			t.Errorf("Expected 10000 cents, got %d", m.ToCents())
		}
	})

	t.Run("FromFloat", func(t *testing.T) {
		m := FromFloat(19.99)
		if m.ToCents() != 1999 {
			t.Errorf("Expected 1999 cents, got %d", m.ToCents())
		}

		m = FromFloat(-5.75)
		if m.ToCents() != -575 {
			t.Errorf("Expected -575 cents, got %d", m.ToCents())
		}
	})

	t.Run("FromDecimal rounds half away from zero", func(t *testing.T) {
		cases := []struct {
			in   string
			want int64
		}{
			{"1933.280152", 193328},
			{"0.005", 1},
			{"-0.005", -1},
			{"0.0049", 0},
			{"12000", 1200000},
		}
		for _, tc := range cases {
			got := FromDecimal(decimal.RequireFromString(tc.in))
			if got.ToCents() != tc.want {
				t.Errorf("FromDecimal(%s) = %d, want %d", tc.in, got.ToCents(), tc.want)
			}
		}
	})
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := NewMoney(56556, 7)
	if !m.Decimal().Equal(decimal.RequireFromString("56556.07")) {
		t.Errorf("Decimal() = %s", m.Decimal())
	}
	if FromDecimal(m.Decimal()) != m {
		t.Errorf("Round trip changed value: %d", FromDecimal(m.Decimal()))
	}
}

func TestMoneyParts(t *testing.T) {
	m := NewMoney(123, 45)

	if m.DollarsPart() != 123 {
		t.Errorf("Expected 123 dollars, got %d", m.DollarsPart())
	}

	if m.CentsPart() != 45 {
		t.Errorf("Expected 45 cents, got %d", m.CentsPart())
	}

	if Cents(-1050).CentsPart() != 50 {
		t.Errorf("Expected 50 cents for negative value, got %d", Cents(-1050).CentsPart())
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Dollars(100)
	b := NewMoney(25, 50)

	if got := a.Add(b); got != NewMoney(125, 50) {
		t.Errorf("Add: got %s", got)
	}
	if got := a.Sub(b); got != NewMoney(74, 50) {
		t.Errorf("Sub: got %s", got)
	}
	if got := b.Mul(3); got != NewMoney(76, 50) {
		t.Errorf("Mul: got %s", got)
	}
	if got := Dollars(1000).MulDecimal(decimal.RequireFromString("0.9")); got != Dollars(900) {
		t.Errorf("MulDecimal: got %s", got)
	}
	if got := Cents(-300).Abs(); got != Cents(300) {
		t.Errorf("Abs: got %s", got)
	}
	if got := Cents(300).Neg(); got != Cents(-300) {
		t.Errorf("Neg: got %s", got)
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{NewMoney(1234, 56), "1234.56"},
		{Cents(5), "0.05"},
		{Cents(-12345), "-123.45"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		m        Money
		currency string
		want     string
	}{
		{NewMoney(1234567, 89), "SGD", "S$1,234,567.89"},
		{NewMoney(1234, 50), "EUR", "€1.234,50"},
		{NewMoney(1234, 50), "SEK", "1 234,50 kr"},
		{Cents(-1999), "USD", "-$19.99"},
		{Dollars(10), "XXX", "S$10.00"},
	}

	for _, tt := range tests {
		if got := tt.m.Format(tt.currency); got != tt.want {
			t.Errorf("Format(%s) = %s, want %s", tt.currency, got, tt.want)
		}
	}
}

func TestRandomAmount(t *testing.T) {
	rng := NewRandom(42)
	min := Dollars(1000)
	max := Dollars(50000)

	for i := 0; i < 1000; i++ {
		v := RandomAmount(rng, min, max)
		if v < min || v > max {
			t.Errorf("RandomAmount returned %s outside [%s, %s]", v, min, max)
		}
	}
}

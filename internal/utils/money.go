package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the smallest currency unit (cents).
// Every stored amount in the portfolio is a Money, which pins the 2-decimal
// rounding rule in one place.
type Money int64

// Currency represents a currency with its formatting rules
type Currency struct {
	Code          string // ISO 4217 code (e.g., "SGD")
	Symbol        string // Display symbol (e.g., "$")
	SymbolFirst   bool   // True if symbol comes before amount
	DecimalPlaces int    // Always 2 for portfolio output, kept for display
	ThousandsSep  string // Thousands separator
	DecimalSep    string // Decimal separator
}

// Currencies the generator can be configured with.
var Currencies = map[string]Currency{
	"SGD": {Code: "SGD", Symbol: "S$", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"USD": {Code: "USD", Symbol: "$", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"EUR": {Code: "EUR", Symbol: "€", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ".", DecimalSep: ","},
	"GBP": {Code: "GBP", Symbol: "£", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"AUD": {Code: "AUD", Symbol: "A$", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"HKD": {Code: "HKD", Symbol: "HK$", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"MYR": {Code: "MYR", Symbol: "RM", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"INR": {Code: "INR", Symbol: "₹", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"THB": {Code: "THB", Symbol: "฿", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	"CHF": {Code: "CHF", Symbol: "CHF", SymbolFirst: true, DecimalPlaces: 2, ThousandsSep: "'", DecimalSep: "."},
	"SEK": {Code: "SEK", Symbol: "kr", SymbolFirst: false, DecimalPlaces: 2, ThousandsSep: " ", DecimalSep: ","},
}

// DefaultCurrency is used when a currency code is not found
var DefaultCurrency = Currencies["SGD"]

// NewMoney creates a Money value from major units and minor units
func NewMoney(dollars int64, cents int) Money {
	return Money(dollars*100 + int64(cents))
}

// Cents creates a Money value from minor units only
func Cents(cents int64) Money {
	return Money(cents)
}

// Dollars creates a Money value from whole major units
func Dollars(dollars int64) Money {
	return Money(dollars * 100)
}

// FromFloat creates a Money value from a float64, rounding half away from zero.
func FromFloat(amount float64) Money {
	return FromDecimal(decimal.NewFromFloat(amount))
}

// FromDecimal rounds d to cents, half away from zero.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(2).Shift(2).IntPart())
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// ToCents returns the value in cents (the underlying representation)
func (m Money) ToCents() int64 {
	return int64(m)
}

// ToDollars returns the value as a float64 (for display purposes only)
func (m Money) ToDollars() float64 {
	return float64(m) / 100
}

// DollarsPart returns just the whole major-unit portion
func (m Money) DollarsPart() int64 {
	return int64(m) / 100
}

// CentsPart returns just the cents portion (0-99)
func (m Money) CentsPart() int {
	cents := int(int64(m) % 100)
	if cents < 0 {
		cents = -cents
	}
	return cents
}

// Add returns the sum of two Money values
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns the difference of two Money values
func (m Money) Sub(other Money) Money {
	return m - other
}

// Mul multiplies by an integer count
func (m Money) Mul(n int64) Money {
	return m * Money(n)
}

// MulDecimal multiplies by a decimal factor and rounds back to cents.
func (m Money) MulDecimal(f decimal.Decimal) Money {
	return FromDecimal(m.Decimal().Mul(f))
}

// Abs returns the absolute value
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Neg returns the negated value
func (m Money) Neg() Money {
	return -m
}

// IsZero returns true if the value is zero
func (m Money) IsZero() bool {
	return m == 0
}

// IsNegative returns true if the value is below zero
func (m Money) IsNegative() bool {
	return m < 0
}

// String returns a simple string representation (e.g., "123.45")
func (m Money) String() string {
	negative := m < 0
	if negative {
		m = -m
	}
	result := fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
	if negative {
		result = "-" + result
	}
	return result
}

// Format formats the money value with the given currency's symbol and separators
func (m Money) Format(currencyCode string) string {
	currency := GetCurrency(currencyCode)

	negative := m < 0
	if negative {
		m = -m
	}

	wholeStr := formatWithSeparator(int64(m)/100, currency.ThousandsSep)
	result := wholeStr + currency.DecimalSep + fmt.Sprintf("%02d", int64(m)%100)

	if currency.SymbolFirst {
		result = currency.Symbol + result
	} else {
		result = result + " " + currency.Symbol
	}

	if negative {
		result = "-" + result
	}

	return result
}

// formatWithSeparator adds thousands separators to a number
func formatWithSeparator(n int64, sep string) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 || sep == "" {
		return str
	}

	var result strings.Builder
	startOffset := len(str) % 3
	if startOffset == 0 {
		startOffset = 3
	}

	result.WriteString(str[:startOffset])
	for i := startOffset; i < len(str); i += 3 {
		result.WriteString(sep)
		result.WriteString(str[i : i+3])
	}

	return result.String()
}

// GetCurrency returns the currency configuration for a code, or the default if not found
func GetCurrency(code string) Currency {
	if c, ok := Currencies[code]; ok {
		return c
	}
	return DefaultCurrency
}

// IsKnownCurrency reports whether code is a configured currency.
func IsKnownCurrency(code string) bool {
	_, ok := Currencies[code]
	return ok
}

// RandomAmount generates a random money amount in [min, max] using the provided RNG
func RandomAmount(rng *Random, min, max Money) Money {
	if min >= max {
		return min
	}
	return Money(rng.Int64Range(int64(min), int64(max)))
}

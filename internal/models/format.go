package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Layouts used in the record contract.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// RatePlaces is the number of decimal places kept for rates and ratios.
const RatePlaces = 4

// FormatBool converts a boolean to "1" or "0" for CSV/database compatibility
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatTime formats a timestamp in MySQL datetime format
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatDate formats a calendar day
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatDatePtr formats a nullable day, returning "" for nil
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// FormatInt formats an int
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatMoney formats an amount with exactly two decimals
func FormatMoney(m utils.Money) string {
	return m.String()
}

// FormatMoneyPtr formats a nullable amount, returning "" for nil
func FormatMoneyPtr(m *utils.Money) string {
	if m == nil {
		return ""
	}
	return m.String()
}

// FormatRate formats a rate or ratio with RatePlaces decimals
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RatePlaces)
}

// ParseDate parses a value written by FormatDate
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

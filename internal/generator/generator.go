// Package generator builds a synthetic lending portfolio: customers, their
// accounts and loans, repayment schedules, postings and bureau records.
//
// Every factory takes an explicit *utils.Random and yields its records lazily.
// Each record draws from its own stream derived from the factory's stream and
// the record's id, so output never depends on iteration order or worker count.
package generator

import (
	"fmt"
	"iter"
	"time"

	"github.com/willfong/portfolio-generator/internal/data"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Env is the read-only context shared by every factory of one run.
type Env struct {
	Now         time.Time
	Currency    string
	Nationality string
	RefData     *data.ReferenceData
	Policy      *risk.Policy
}

// today is Now truncated to midnight UTC.
func (e Env) today() time.Time {
	return utils.TruncateDay(e.Now)
}

// generateN yields build(0..n-1), stopping after the first error.
func generateN[T any](n int, build func(i int) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := range n {
			v, err := build(i)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// ID formats, one per table.
func customerID(i int) string      { return fmt.Sprintf("CUS-%06d", i+1) }
func accountID(i int) string       { return fmt.Sprintf("ACC-%07d", i+1) }
func loanID(i int) string          { return fmt.Sprintf("LN-%08d", i+1) }
func scheduleID(n int64) string    { return fmt.Sprintf("SCH-%010d", n) }
func transactionID(n int64) string { return fmt.Sprintf("TXN-%010d", n) }
func creditScoreID(i int) string   { return fmt.Sprintf("CS-%08d", i+1) }
func inquiryID(i int) string       { return fmt.Sprintf("INQ-%010d", i+1) }
func tradelineID(i int) string     { return fmt.Sprintf("TL-%010d", i+1) }
func collateralID(i int) string    { return fmt.Sprintf("COL-%08d", i+1) }

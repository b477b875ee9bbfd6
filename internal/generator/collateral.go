package generator

import (
	"fmt"
	"iter"

	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

var valuationSources = []string{"INTERNAL", "EXTERNAL", "MARKET"}

// CollateralFactory creates one collateral row per secured loan.
type CollateralFactory struct {
	rng   *utils.Random
	env   Env
	loans *LoanIndex
}

// NewCollateralFactory creates a new collateral factory
func NewCollateralFactory(rng *utils.Random, env Env, loans *LoanIndex) *CollateralFactory {
	return &CollateralFactory{
		rng:   rng.Derive("collateral"),
		env:   env,
		loans: loans,
	}
}

// Generate yields collateral for secured loans in loan order. Ids are numbered
// consecutively over the secured loans only.
func (f *CollateralFactory) Generate() iter.Seq2[models.Collateral, error] {
	return func(yield func(models.Collateral, error) bool) {
		n := 0
		for i := range f.loans.Len() {
			loan := f.loans.At(i)
			if !loan.IsSecured() {
				continue
			}
			c, err := f.ForLoan(loan, n)
			if !yield(c, err) || err != nil {
				return
			}
			n++
		}
	}
}

// ForLoan builds the n-th collateral row, pledged against loan
func (f *CollateralFactory) ForLoan(loan *models.Loan, n int) (models.Collateral, error) {
	rng := f.rng.Derive(loan.ID)
	today := f.env.today()

	// Revalued within 10% of the pledged value
	current := loan.CollateralValue.MulDecimal(sampler.UniformDecimal(rng, 0.9, 1.1, models.RatePlaces))

	var location string
	if loan.CollateralType == models.CollateralProperty {
		location = f.address(rng)
	}

	return models.NewCollateral(models.Collateral{
		ID:              collateralID(n),
		LoanID:          loan.ID,
		CustomerID:      loan.CustomerID,
		Type:            loan.CollateralType,
		Description:     fmt.Sprintf("%s for %s loan", loan.CollateralType, loan.Type),
		OriginalValue:   loan.CollateralValue,
		CurrentValue:    max(current, utils.Cents(1)),
		ValuationDate:   sampler.DateBetween(rng, loan.StartDate, today),
		ValuationSource: sampler.Pick(rng, valuationSources),
		Currency:        loan.Currency,
		Location:        location,
		InsurancePolicy: fmt.Sprintf("INS%06d", rng.IntRange(100000, 999999)),
		InsuranceExpiry: sampler.DateBetween(rng, today, today.AddDate(2, 0, 0)),
		LienPosition:    1,
		RegistrationRef: fmt.Sprintf("REG%06d", rng.IntRange(100000, 999999)),
		Status:          loan.Status,
		CreatedAt:       loan.StartDate,
		UpdatedAt:       f.env.Now,
	})
}

// address builds a street address in the customer's country
func (f *CollateralFactory) address(rng *utils.Random) string {
	streets := f.env.RefData.GetStreets(f.env.Nationality)
	street := "Main Street"
	if len(streets) > 0 {
		street = rng.PickString(streets)
	}
	return truncate(fmt.Sprintf("%d %s", rng.IntRange(1, 999), street), 200)
}

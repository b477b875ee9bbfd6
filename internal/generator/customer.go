package generator

import (
	"fmt"
	"iter"
	"strings"

	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/sampler"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Customer demographics
var (
	segmentWeights = []sampler.Choice[models.CustomerSegment]{
		{Value: models.SegmentRetail, Weight: 70},
		{Value: models.SegmentWealth, Weight: 20},
		{Value: models.SegmentCorporate, Weight: 10},
	}
	customerStatusWeights = []sampler.Choice[models.CustomerStatus]{
		{Value: models.CustomerStatusActive, Weight: 95},
		{Value: models.CustomerStatusDormant, Weight: 5},
	}
	kycWeights = []sampler.Choice[models.KYCStatus]{
		{Value: models.KYCVerified, Weight: 90},
		{Value: models.KYCPending, Weight: 5},
		{Value: models.KYCExpired, Weight: 5},
	}
	maritalStatuses = []string{models.MaritalSingle, models.MaritalMarried, models.MaritalDivorced, models.MaritalWidowed}
	sectors         = []string{"1001", "1002", "2001", "2002"}
	industries      = []string{"TECH", "FINANCE", "HEALTH", "RETAIL", "MANUF"}
)

// Age is Normal(40, 15) clamped to adulthood.
const (
	meanAge   = 40
	stddevAge = 15
	minAge    = 18
	maxAge    = 80

	maxTenureYears = 20
)

// CustomerFactory creates customers with demographics, KYC state and a credit score.
type CustomerFactory struct {
	rng    *utils.Random
	env    Env
	config CustomerFactoryConfig
}

// CustomerFactoryConfig holds settings for customer generation
type CustomerFactoryConfig struct {
	NumCustomers int
	// Credit score shape: Beta(ScoreAlpha, ScoreBeta) scaled to 300..850
	ScoreAlpha float64
	ScoreBeta  float64
}

// NewCustomerFactory creates a new customer factory
func NewCustomerFactory(rng *utils.Random, env Env, config CustomerFactoryConfig) *CustomerFactory {
	return &CustomerFactory{
		rng:    rng.Derive("customer"),
		env:    env,
		config: config,
	}
}

// Generate yields every customer in id order
func (f *CustomerFactory) Generate() iter.Seq2[models.Customer, error] {
	return generateN(f.config.NumCustomers, f.generateCustomer)
}

// generateCustomer creates a single customer
func (f *CustomerFactory) generateCustomer(i int) (models.Customer, error) {
	id := customerID(i)
	rng := f.rng.Derive(id)
	today := f.env.today()

	// Names follow the nationality's region
	region := f.env.RefData.GetRegion(f.env.Nationality)
	isMale := rng.Bool()
	firstName := f.pickFirstName(rng, region, isMale)
	lastName := f.pickLastName(rng, region)
	gender := "F"
	if isMale {
		gender = "M"
	}

	age := sampler.BoundedNormalInt(rng, meanAge, stddevAge, minAge, maxAge)
	dob := today.AddDate(-age, 0, -rng.IntN(365))

	// Tenure never reaches back before birth
	years := rng.IntRange(1, min(maxTenureYears, age-1))
	since := today.AddDate(0, 0, -365*years)

	score := sampler.ScaledBetaInt(rng, f.config.ScoreAlpha, f.config.ScoreBeta, 300, 850)

	return models.NewCustomer(models.Customer{
		ID:                  id,
		Mnemonic:            mnemonic(rng, firstName, lastName),
		ShortName:           truncate(firstName+" "+lastName, 50),
		FirstName:           firstName,
		LastName:            lastName,
		Gender:              gender,
		DateOfBirth:         dob,
		MaritalStatus:       sampler.Pick(rng, maritalStatuses),
		Nationality:         f.env.Nationality,
		Residence:           f.env.Nationality,
		Sector:              sampler.Pick(rng, sectors),
		Industry:            sampler.Pick(rng, industries),
		Segment:             sampler.Weighted(rng, segmentWeights),
		Status:              sampler.Weighted(rng, customerStatusWeights),
		CustomerSince:       since,
		KYCStatus:           sampler.Weighted(rng, kycWeights),
		KYCLastReview:       sampler.DateWithinDays(rng, today, 365),
		CreditScore:         score,
		RelationshipManager: fmt.Sprintf("RM%03d", rng.IntRange(1, 50)),
		BranchCode:          branchCode(rng),
		CreatedAt:           since,
		UpdatedAt:           f.env.Now,
	}, f.env.Policy)
}

// pickFirstName creates a first name based on region
func (f *CustomerFactory) pickFirstName(rng *utils.Random, region string, isMale bool) string {
	names := f.env.RefData.GetFirstNames(region, isMale)
	if len(names) == 0 {
		names = f.env.RefData.GetFirstNames("western", isMale)
	}
	if len(names) == 0 {
		if isMale {
			return "John"
		}
		return "Jane"
	}
	return rng.PickString(names)
}

// pickLastName creates a last name based on region
func (f *CustomerFactory) pickLastName(rng *utils.Random, region string) string {
	names := f.env.RefData.GetLastNames(region)
	if len(names) == 0 {
		names = f.env.RefData.GetLastNames("western")
	}
	if len(names) == 0 {
		return "Smith"
	}
	return rng.PickString(names)
}

// mnemonic builds a short uppercase handle such as "WTAN482"
func mnemonic(rng *utils.Random, firstName, lastName string) string {
	var b strings.Builder
	if firstName != "" {
		b.WriteString(firstName[:1])
	}
	for _, r := range lastName {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return truncate(strings.ToUpper(b.String()), 16) + rng.NumericString(3)
}

func branchCode(rng *utils.Random) string {
	return fmt.Sprintf("BR%03d", rng.IntRange(1, 20))
}

// truncate cuts s to at most n bytes
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/utils"
)

func TestCategorize(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		score int
		want  Category
	}{
		{850, CategoryLow},
		{720, CategoryLow},
		{719, CategoryMedium},
		{700, CategoryMedium},
		{650, CategoryMedium},
		{649, CategoryHigh},
		{300, CategoryHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Categorize(tc.score), "score %d", tc.score)
	}
}

func TestPremium(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, "0", p.Premium(CategoryLow).String())
	assert.Equal(t, "1", p.Premium(CategoryMedium).String())
	assert.Equal(t, "2", p.Premium(CategoryHigh).String())
}

func TestNewPolicyValidation(t *testing.T) {
	_, err := NewPolicy(700, 600)
	require.NoError(t, err)

	for name, th := range map[string][2]int{
		"inverted":         {650, 720},
		"equal":            {700, 700},
		"low above 850":    {900, 650},
		"medium below 300": {720, 250},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewPolicy(th[0], th[1])
			assert.True(t, errors.Is(err, ErrInvalidPolicy))
		})
	}
}

func TestSampleDaysPastDue(t *testing.T) {
	p := DefaultPolicy()
	rng := utils.NewRandom(42)
	allowed := map[int]bool{0: true, 15: true, 45: true, 75: true, 120: true}

	delinquent := map[Category]int{}
	const n = 50000
	for _, c := range Categories {
		for i := 0; i < n; i++ {
			dpd := p.SampleDaysPastDue(rng, c)
			require.True(t, allowed[dpd], "unexpected dpd %d", dpd)
			if dpd > 0 {
				delinquent[c]++
			}
		}
	}

	// Half of the delinquent branch draws the zero bucket.
	assert.InDelta(t, 0.01, float64(delinquent[CategoryLow])/n, 0.004)
	assert.InDelta(t, 0.025, float64(delinquent[CategoryMedium])/n, 0.006)
	assert.InDelta(t, 0.06, float64(delinquent[CategoryHigh])/n, 0.01)
}

func TestStatus(t *testing.T) {
	balance := utils.Dollars(1000)

	assert.Equal(t, StatusCurrent, Status(balance, 0))
	assert.Equal(t, StatusDelinquent, Status(balance, 15))
	assert.Equal(t, StatusDelinquent, Status(balance, 89))
	assert.Equal(t, StatusDefault, Status(balance, 90))
	assert.Equal(t, StatusDefault, Status(balance, 120))
	assert.Equal(t, StatusClosed, Status(0, 0))
	assert.Equal(t, StatusClosed, Status(0, 120))
}

func TestArrears(t *testing.T) {
	emi := utils.NewMoney(1933, 28)

	assert.Zero(t, Arrears(emi, 0))
	assert.Zero(t, Arrears(emi, 15))
	assert.Equal(t, emi, Arrears(emi, 45))
	assert.Equal(t, emi.Mul(2), Arrears(emi, 75))
	assert.Equal(t, emi.Mul(4), Arrears(emi, 120))
}

func TestOverdueInstallments(t *testing.T) {
	assert.Equal(t, 0, OverdueInstallments(0))
	assert.Equal(t, 1, OverdueInstallments(15))
	assert.Equal(t, 1, OverdueInstallments(30))
	assert.Equal(t, 2, OverdueInstallments(45))
	assert.Equal(t, 3, OverdueInstallments(75))
	assert.Equal(t, 4, OverdueInstallments(120))
}

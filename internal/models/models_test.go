package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

var now = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func sampleCustomer() Customer {
	return Customer{
		ID:            "CUS-000001",
		FirstName:     "Wei",
		LastName:      "Tan",
		Gender:        "M",
		DateOfBirth:   time.Date(1985, 3, 2, 0, 0, 0, 0, time.UTC),
		MaritalStatus: MaritalMarried,
		Nationality:   "SGP",
		Residence:     "SGP",
		Segment:       SegmentRetail,
		Status:        CustomerStatusActive,
		CustomerSince: time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC),
		KYCStatus:     KYCVerified,
		KYCLastReview: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		CreditScore:   700,
		CreatedAt:     time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     now,
	}
}

func sampleApplication() LoanApplication {
	return LoanApplication{
		ID:              "LN-00000001",
		CustomerID:      "CUS-000001",
		AccountID:       "ACC-0000001",
		Type:            LoanTypeAuto,
		ProductCode:     "LN123",
		Currency:        "SGD",
		Principal:       utils.Dollars(100000),
		InterestRate:    decimal.NewFromInt(6),
		InterestType:    InterestFixed,
		TermMonths:      60,
		StartDate:       now.AddDate(0, 0, -720),
		CollateralType:  CollateralVehicle,
		CollateralValue: utils.Dollars(150000),
		ApprovalDate:    now.AddDate(0, 0, -730),
		ApprovedBy:      "OFFICER007",
	}
}

func TestNewCustomerDerivesRiskCategory(t *testing.T) {
	policy := risk.DefaultPolicy()

	c := sampleCustomer()
	c.RiskCategory = risk.CategoryLow // ignored, always derived

	got, err := NewCustomer(c, policy)
	require.NoError(t, err)
	assert.Equal(t, risk.CategoryMedium, got.RiskCategory)

	c.CreditScore = 720
	got, err = NewCustomer(c, policy)
	require.NoError(t, err)
	assert.Equal(t, risk.CategoryLow, got.RiskCategory)
}

func TestNewCustomerRejectsOutOfDomain(t *testing.T) {
	c := sampleCustomer()
	c.CreditScore = 900

	_, err := NewCustomer(c, risk.DefaultPolicy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldDomain))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "credit_score", fe.Field)
	assert.Equal(t, "CUS-000001", fe.Key)
}

func TestNewLoanDerivesFields(t *testing.T) {
	// GIVEN the standard 100k/6%/60 month loan started 24 months ago
	app := sampleApplication()

	// WHEN
	l, err := NewLoan(app, now)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, utils.NewMoney(1933, 28), l.MonthlyEMI)
	assert.Equal(t, 24, l.PaymentsMade)
	assert.Equal(t, 36, l.PaymentsRemaining)
	assert.Equal(t, utils.NewMoney(63548, 88), l.Outstanding)
	assert.Equal(t, risk.StatusCurrent, l.Status)
	assert.Zero(t, l.Arrears)
	assert.Equal(t, "AUTO Loan", l.ProductName)
	assert.Equal(t, "0.6667", FormatRate(l.LTVRatio))
	assert.Equal(t, l.StartDate.AddDate(0, 0, 1800), l.MaturityDate)
	assert.Equal(t, l.StartDate.AddDate(0, 0, 750), l.NextPaymentDate)
}

func TestNewLoanDelinquency(t *testing.T) {
	app := sampleApplication()

	app.DaysPastDue = 45
	l, err := NewLoan(app, now)
	require.NoError(t, err)
	assert.Equal(t, risk.StatusDelinquent, l.Status)
	assert.Equal(t, l.MonthlyEMI, l.Arrears)

	app.DaysPastDue = 120
	l, err = NewLoan(app, now)
	require.NoError(t, err)
	assert.Equal(t, risk.StatusDefault, l.Status)
	assert.Equal(t, l.MonthlyEMI.Mul(4), l.Arrears)
}

func TestNewLoanClosedWhenFullyPaid(t *testing.T) {
	app := sampleApplication()
	app.TermMonths = 12
	app.DaysPastDue = 120

	l, err := NewLoan(app, now)
	require.NoError(t, err)
	assert.Equal(t, 12, l.PaymentsMade)
	assert.Zero(t, l.Outstanding)
	assert.Equal(t, risk.StatusClosed, l.Status)
}

func TestNewLoanRejectsZeroTerm(t *testing.T) {
	app := sampleApplication()
	app.TermMonths = 0

	_, err := NewLoan(app, now)
	require.Error(t, err)
}

func TestLoanValidateCatchesTampering(t *testing.T) {
	l, err := NewLoan(sampleApplication(), now)
	require.NoError(t, err)

	tampered := l
	tampered.Outstanding = l.Principal.Add(utils.Cents(1))
	assert.True(t, errors.Is(tampered.Validate(), ErrFieldDomain))

	tampered = l
	tampered.Status = risk.StatusDefault
	assert.True(t, errors.Is(tampered.Validate(), ErrFieldDomain))

	tampered = l
	tampered.PaymentsMade = 61
	assert.True(t, errors.Is(tampered.Validate(), ErrFieldDomain))
}

func TestAccountAvailableLimitOnlyForCards(t *testing.T) {
	a := Account{
		ID:               "ACC-0000001",
		CustomerID:       "CUS-000001",
		Type:             AccountTypeSavings,
		Currency:         "SGD",
		WorkingBalance:   utils.Dollars(1000),
		Status:           AccountStatusActive,
		OpeningDate:      now.AddDate(-1, 0, 0),
		LastActivityDate: now,
		InterestRate:     decimal.RequireFromString("1.5"),
	}
	_, err := NewAccount(a)
	require.NoError(t, err)

	a.AvailableLimit = utils.Dollars(900)
	_, err = NewAccount(a)
	assert.True(t, errors.Is(err, ErrFieldDomain))

	a.Type = AccountTypeCreditCard
	_, err = NewAccount(a)
	assert.NoError(t, err)

	a.WorkingBalance = utils.Cents(-1)
	_, err = NewAccount(a)
	assert.True(t, errors.Is(err, ErrFieldDomain))
}

func TestTransactionSign(t *testing.T) {
	tx := Transaction{
		ID:           "TXN-0000000001",
		AccountID:    "ACC-0000001",
		Type:         TxTypeWithdrawal,
		Amount:       utils.Dollars(-50),
		AmountLCY:    utils.Dollars(-50),
		Currency:     "SGD",
		ExchangeRate: decimal.NewFromInt(1),
		ValueDate:    now,
		BookingDate:  now,
		Channel:      ChannelATM,
	}
	_, err := NewTransaction(tx)
	require.NoError(t, err)

	tx.Amount = utils.Dollars(50)
	tx.AmountLCY = utils.Dollars(50)
	_, err = NewTransaction(tx)
	assert.True(t, errors.Is(err, ErrFieldDomain))

	tx.Type = TxTypeTransfer
	tx.CounterpartyAccount = "ACC-0000001"
	_, err = NewTransaction(tx)
	assert.True(t, errors.Is(err, ErrFieldDomain), "self transfer must be rejected")

	tx.CounterpartyAccount = "ACC-0000002"
	_, err = NewTransaction(tx)
	assert.NoError(t, err)
}

func TestScheduleStatusRules(t *testing.T) {
	paidOn := now.AddDate(0, -1, 0)
	row := PaymentSchedule{
		ID:                "SCH-0000000001",
		LoanID:            "LN-00000001",
		InstallmentNumber: 1,
		DueDate:           paidOn,
		PrincipalDue:      utils.NewMoney(1433, 28),
		InterestDue:       utils.Dollars(500),
		TotalDue:          utils.NewMoney(1933, 28),
		PrincipalPaid:     utils.NewMoney(1433, 28),
		InterestPaid:      utils.Dollars(500),
		TotalPaid:         utils.NewMoney(1933, 28),
		PaymentDate:       &paidOn,
		Status:            PaymentPaid,
	}
	_, err := NewPaymentSchedule(row)
	require.NoError(t, err)

	overdue := row
	overdue.Status = PaymentOverdue
	_, err = NewPaymentSchedule(overdue)
	assert.True(t, errors.Is(err, ErrFieldDomain), "overdue rows carry no payment")

	overdue.PrincipalPaid, overdue.InterestPaid, overdue.TotalPaid = 0, 0, 0
	overdue.PaymentDate = nil
	overdue.PenaltyAmount = utils.Dollars(25)
	overdue.DaysLate = 30
	_, err = NewPaymentSchedule(overdue)
	assert.NoError(t, err)
}

func TestRecordsMatchTheirColumns(t *testing.T) {
	c, err := NewCustomer(sampleCustomer(), risk.DefaultPolicy())
	require.NoError(t, err)
	l, err := NewLoan(sampleApplication(), now)
	require.NoError(t, err)

	p := &Portfolio{Customers: []Customer{c}, Loans: []Loan{l}}

	tables := p.Tables()
	require.Len(t, tables, len(TableNames))
	for i, table := range tables {
		assert.Equal(t, TableNames[i], table.Name)
		assert.NotEmpty(t, table.PrimaryKey(), table.Name)
		for rec := range table.Rows {
			assert.Len(t, rec.Values(), len(table.Columns), table.Name)
		}
	}

	customers, ok := p.Table(TableCustomers)
	require.True(t, ok)
	assert.Equal(t, 1, customers.Len)
	assert.Equal(t, "customer_id", customers.Headers()[0])

	loanValues := l.Values()
	assert.Equal(t, "1933.28", loanValues[12])
	assert.Equal(t, "6.0000", loanValues[9])

	assert.Equal(t, 2, p.TotalRecords())
	assert.Equal(t, 1, p.Counts()[TableLoans])
}

func TestSchemaColumnCounts(t *testing.T) {
	want := map[string]int{
		TableCustomers:        23,
		TableAccounts:         19,
		TableLoans:            28,
		TablePaymentSchedules: 17,
		TableTransactions:     23,
		TableCreditScores:     19,
		TableCreditInquiries:  9,
		TableTradelines:       17,
		TableCollateral:       18,
	}
	for _, table := range Schema() {
		assert.Equal(t, want[table.Name], len(table.Columns), table.Name)
		assert.Zero(t, table.Len)
	}
}

func TestColumnValue(t *testing.T) {
	v, err := integer("n").Value("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = integer("n").Value("x")
	assert.ErrorContains(t, err, "column n")

	v, _ = boolean("b").Value("1")
	assert.Equal(t, true, v)
	v, _ = money("m").Value("12.50")
	assert.Equal(t, "12.50", v)
	v, _ = nullText("t", 5).Value("")
	assert.Nil(t, v)
	v, _ = text("t", 5).Value("")
	assert.Equal(t, "", v)
}

func TestTableMap(t *testing.T) {
	p := &Portfolio{Customers: []Customer{sampleCustomer()}}
	tbl, ok := p.Table(TableCustomers)
	require.True(t, ok)
	for rec := range tbl.Rows {
		m, err := tbl.Map(rec)
		require.NoError(t, err)
		assert.Equal(t, "CUS-000001", m["customer_id"])
		assert.Len(t, m, len(tbl.Columns))
	}
}

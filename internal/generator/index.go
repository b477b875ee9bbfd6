package generator

import (
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// CustomerIndex is a read-only snapshot of the finalized customers.
// Factories sample foreign keys from it and never see a partial population.
type CustomerIndex struct {
	customers []models.Customer
	byID      map[string]int
}

// NewCustomerIndex snapshots customers. The slice must not be modified afterwards.
func NewCustomerIndex(customers []models.Customer) *CustomerIndex {
	byID := make(map[string]int, len(customers))
	for i, c := range customers {
		byID[c.ID] = i
	}
	return &CustomerIndex{customers: customers, byID: byID}
}

// Len returns the number of customers
func (x *CustomerIndex) Len() int { return len(x.customers) }

// At returns the i-th customer
func (x *CustomerIndex) At(i int) *models.Customer { return &x.customers[i] }

// Get looks a customer up by id
func (x *CustomerIndex) Get(id string) (*models.Customer, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.customers[i], true
}

// Sample picks a customer uniformly
func (x *CustomerIndex) Sample(rng *utils.Random) *models.Customer {
	return &x.customers[rng.IntN(len(x.customers))]
}

// AccountIndex is a read-only snapshot of the finalized accounts.
type AccountIndex struct {
	accounts   []models.Account
	byID       map[string]int
	byCustomer map[string][]int
}

// NewAccountIndex snapshots accounts. The slice must not be modified afterwards.
func NewAccountIndex(accounts []models.Account) *AccountIndex {
	x := &AccountIndex{
		accounts:   accounts,
		byID:       make(map[string]int, len(accounts)),
		byCustomer: make(map[string][]int),
	}
	for i, a := range accounts {
		x.byID[a.ID] = i
		x.byCustomer[a.CustomerID] = append(x.byCustomer[a.CustomerID], i)
	}
	return x
}

// Len returns the number of accounts
func (x *AccountIndex) Len() int { return len(x.accounts) }

// At returns the i-th account
func (x *AccountIndex) At(i int) *models.Account { return &x.accounts[i] }

// Get looks an account up by id
func (x *AccountIndex) Get(id string) (*models.Account, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.accounts[i], true
}

// Sample picks an account uniformly
func (x *AccountIndex) Sample(rng *utils.Random) *models.Account {
	return &x.accounts[rng.IntN(len(x.accounts))]
}

// SampleOther picks an account other than exclude, or nil when there is none.
func (x *AccountIndex) SampleOther(rng *utils.Random, exclude string) *models.Account {
	n := len(x.accounts)
	skip, found := x.byID[exclude]
	if !found {
		if n == 0 {
			return nil
		}
		return x.Sample(rng)
	}
	if n < 2 {
		return nil
	}
	// Draw from n-1 slots and shift past the excluded one.
	i := rng.IntN(n - 1)
	if i >= skip {
		i++
	}
	return &x.accounts[i]
}

// OwnedBy returns the accounts of one customer in id order.
func (x *AccountIndex) OwnedBy(customerID string) []*models.Account {
	idx := x.byCustomer[customerID]
	out := make([]*models.Account, len(idx))
	for i, j := range idx {
		out[i] = &x.accounts[j]
	}
	return out
}

// SampleFor picks one of the customer's own accounts, or any account when the
// customer has none.
func (x *AccountIndex) SampleFor(rng *utils.Random, customerID string) *models.Account {
	if own := x.byCustomer[customerID]; len(own) > 0 {
		return &x.accounts[own[rng.IntN(len(own))]]
	}
	return x.Sample(rng)
}

// LoanIndex is a read-only snapshot of the finalized loans.
type LoanIndex struct {
	loans []models.Loan
	byID  map[string]int
}

// NewLoanIndex snapshots loans. The slice must not be modified afterwards.
func NewLoanIndex(loans []models.Loan) *LoanIndex {
	byID := make(map[string]int, len(loans))
	for i, l := range loans {
		byID[l.ID] = i
	}
	return &LoanIndex{loans: loans, byID: byID}
}

// Len returns the number of loans
func (x *LoanIndex) Len() int { return len(x.loans) }

// At returns the i-th loan
func (x *LoanIndex) At(i int) *models.Loan { return &x.loans[i] }

// Get looks a loan up by id
func (x *LoanIndex) Get(id string) (*models.Loan, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.loans[i], true
}

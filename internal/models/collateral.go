package models

import (
	"time"

	"github.com/willfong/portfolio-generator/internal/risk"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Collateral is the asset pledged against a secured loan
type Collateral struct {
	ID          string         `db:"collateral_id" json:"collateral_id"`
	LoanID      string         `db:"loan_id" json:"loan_id"`
	CustomerID  string         `db:"customer_id" json:"customer_id"`
	Type        CollateralType `db:"collateral_type" json:"collateral_type"`
	Description string         `db:"description" json:"description"`

	OriginalValue   utils.Money `db:"original_value" json:"original_value"`
	CurrentValue    utils.Money `db:"current_value" json:"current_value"`
	ValuationDate   time.Time   `db:"valuation_date" json:"valuation_date"`
	ValuationSource string      `db:"valuation_source" json:"valuation_source"`
	Currency        string      `db:"currency" json:"currency"`
	// Location is set for PROPERTY only
	Location string `db:"location" json:"location,omitempty"`

	InsurancePolicy string    `db:"insurance_policy" json:"insurance_policy"`
	InsuranceExpiry time.Time `db:"insurance_expiry" json:"insurance_expiry"`
	LienPosition    int       `db:"lien_position" json:"lien_position"`
	RegistrationRef string    `db:"registration_ref" json:"registration_ref"`
	// Status mirrors the loan status
	Status risk.LoanStatus `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewCollateral validates c and returns it.
func NewCollateral(c Collateral) (Collateral, error) {
	if err := c.Validate(); err != nil {
		return Collateral{}, err
	}
	return c, nil
}

// Validate checks every field domain of c.
func (c Collateral) Validate() error {
	v := newChecker("collateral", c.ID)
	v.check(c.ID != "", "collateral_id", c.ID, "is empty")
	v.check(c.LoanID != "", "loan_id", c.LoanID, "is empty")
	v.check(oneOf(c.Type, CollateralProperty, CollateralVehicle, CollateralDeposits), "collateral_type", c.Type,
		"must be a secured type")
	v.check(c.OriginalValue > 0, "original_value", c.OriginalValue, "must be positive")
	v.check(c.CurrentValue > 0, "current_value", c.CurrentValue, "must be positive")
	v.check(utils.IsKnownCurrency(c.Currency), "currency", c.Currency, "unknown")
	v.check((c.Type == CollateralProperty) == (c.Location != ""), "location", c.Location, "is set only for PROPERTY")
	v.check(c.LienPosition >= 1, "lien_position", c.LienPosition, "must be at least 1")
	v.check(c.Status.Valid(), "status", c.Status, "unknown")
	return v.result()
}

var collateralColumns = []Column{
	pk("collateral_id", 12),
	fk("loan_id", 12, TableLoans),
	fk("customer_id", 12, TableCustomers),
	text("collateral_type", 10),
	text("description", 100),
	money("original_value"),
	money("current_value"),
	date("valuation_date"),
	text("valuation_source", 10),
	text("currency", 3),
	nullText("location", 200),
	text("insurance_policy", 12),
	date("insurance_expiry"),
	integer("lien_position"),
	text("registration_ref", 12),
	text("status", 10),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (c Collateral) Columns() []Column { return collateralColumns }

func (c Collateral) Key() string { return c.ID }

func (c Collateral) Values() []string {
	return []string{
		c.ID,
		c.LoanID,
		c.CustomerID,
		string(c.Type),
		c.Description,
		FormatMoney(c.OriginalValue),
		FormatMoney(c.CurrentValue),
		FormatDate(c.ValuationDate),
		c.ValuationSource,
		c.Currency,
		c.Location,
		c.InsurancePolicy,
		FormatDate(c.InsuranceExpiry),
		FormatInt(c.LienPosition),
		c.RegistrationRef,
		string(c.Status),
		FormatTime(c.CreatedAt),
		FormatTime(c.UpdatedAt),
	}
}

package models

import (
	"time"

	"github.com/willfong/portfolio-generator/internal/risk"
)

// CustomerSegment represents the customer's banking tier (target market)
type CustomerSegment string

const (
	SegmentRetail    CustomerSegment = "RETAIL"
	SegmentWealth    CustomerSegment = "WEALTH"
	SegmentCorporate CustomerSegment = "CORPORATE"
)

// CustomerStatus represents the customer's relationship status
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "ACTIVE"
	CustomerStatusDormant CustomerStatus = "DORMANT"
)

// KYCStatus is the know-your-customer review outcome
type KYCStatus string

const (
	KYCVerified KYCStatus = "VERIFIED"
	KYCPending  KYCStatus = "PENDING"
	KYCExpired  KYCStatus = "EXPIRED"
)

// MaritalStatus values
const (
	MaritalSingle   = "SINGLE"
	MaritalMarried  = "MARRIED"
	MaritalDivorced = "DIVORCED"
	MaritalWidowed  = "WIDOWED"
)

// Customer represents a bank customer (T24 CUSTOMER record)
type Customer struct {
	ID        string `db:"customer_id" json:"customer_id"`
	Mnemonic  string `db:"mnemonic" json:"mnemonic"`
	ShortName string `db:"short_name" json:"short_name"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Gender    string `db:"gender" json:"gender"`

	DateOfBirth   time.Time `db:"date_of_birth" json:"date_of_birth"`
	MaritalStatus string    `db:"marital_status" json:"marital_status"`
	Nationality   string    `db:"nationality" json:"nationality"`
	Residence     string    `db:"residence" json:"residence"`

	Sector   string          `db:"sector" json:"sector"`
	Industry string          `db:"industry" json:"industry"`
	Segment  CustomerSegment `db:"segment" json:"segment"`
	Status   CustomerStatus  `db:"status" json:"status"`

	CustomerSince time.Time `db:"customer_since" json:"customer_since"`
	KYCStatus     KYCStatus `db:"kyc_status" json:"kyc_status"`
	KYCLastReview time.Time `db:"kyc_last_review" json:"kyc_last_review"`

	// CreditScore is 300..850; RiskCategory is always derived from it.
	CreditScore  int           `db:"credit_score" json:"credit_score"`
	RiskCategory risk.Category `db:"risk_category" json:"risk_category"`

	RelationshipManager string `db:"relationship_manager" json:"relationship_manager"`
	BranchCode          string `db:"branch_code" json:"branch_code"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewCustomer derives the risk category from the credit score and validates c.
func NewCustomer(c Customer, policy *risk.Policy) (Customer, error) {
	c.RiskCategory = policy.Categorize(c.CreditScore)
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Validate checks every field domain of c.
func (c Customer) Validate() error {
	v := newChecker("customer", c.ID)
	v.check(c.ID != "", "customer_id", c.ID, "is empty")
	v.check(c.Gender == "M" || c.Gender == "F", "gender", c.Gender, "must be M or F")
	v.check(oneOf(c.MaritalStatus, MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed),
		"marital_status", c.MaritalStatus, "unknown")
	v.check(oneOf(c.Segment, SegmentRetail, SegmentWealth, SegmentCorporate), "segment", c.Segment, "unknown")
	v.check(oneOf(c.Status, CustomerStatusActive, CustomerStatusDormant), "status", c.Status, "unknown")
	v.check(oneOf(c.KYCStatus, KYCVerified, KYCPending, KYCExpired), "kyc_status", c.KYCStatus, "unknown")
	v.check(c.CreditScore >= risk.MinScore && c.CreditScore <= risk.MaxScore,
		"credit_score", c.CreditScore, "must be within 300..850")
	v.check(c.RiskCategory.Valid(), "risk_category", c.RiskCategory, "unknown")
	v.check(c.DateOfBirth.Before(c.CustomerSince), "date_of_birth", FormatDate(c.DateOfBirth), "must precede customer_since")
	v.check(!c.UpdatedAt.Before(c.CreatedAt), "updated_at", FormatTime(c.UpdatedAt), "precedes created_at")
	return v.result()
}

var customerColumns = []Column{
	pk("customer_id", 12),
	text("mnemonic", 20),
	text("short_name", 50),
	text("first_name", 50),
	text("last_name", 50),
	text("gender", 1),
	date("date_of_birth"),
	text("marital_status", 10),
	text("nationality", 3),
	text("residence", 3),
	text("sector", 4),
	text("industry", 10),
	text("segment", 10),
	text("status", 10),
	date("customer_since"),
	text("kyc_status", 10),
	date("kyc_last_review"),
	integer("credit_score"),
	text("risk_category", 6),
	text("relationship_manager", 10),
	text("branch_code", 10),
	timestamp("created_at"),
	timestamp("updated_at"),
}

func (c Customer) Columns() []Column { return customerColumns }

func (c Customer) Key() string { return c.ID }

func (c Customer) Values() []string {
	return []string{
		c.ID,
		c.Mnemonic,
		c.ShortName,
		c.FirstName,
		c.LastName,
		c.Gender,
		FormatDate(c.DateOfBirth),
		c.MaritalStatus,
		c.Nationality,
		c.Residence,
		c.Sector,
		c.Industry,
		string(c.Segment),
		string(c.Status),
		FormatDate(c.CustomerSince),
		string(c.KYCStatus),
		FormatDate(c.KYCLastReview),
		FormatInt(c.CreditScore),
		string(c.RiskCategory),
		c.RelationshipManager,
		c.BranchCode,
		FormatTime(c.CreatedAt),
		FormatTime(c.UpdatedAt),
	}
}

// oneOf reports whether v equals any of allowed.
func oneOf[T comparable](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

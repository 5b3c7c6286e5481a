// Package reference holds the read-only master data a register sells against:
// tax rates, departments, products, currencies, payment types and the policy
// attached to each document kind.
package reference

import (
	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxRate is a configured VAT rate
type TaxRate struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// Department is a sales group. A department with a ParentID is a sub-department.
type Department struct {
	ID               uuid.UUID  `json:"id"`
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty"`
	TaxRateID        *uuid.UUID `json:"tax_rate_id,omitempty"`
	AllowNonPositive bool       `json:"allow_non_positive"`
}

func (d Department) IsSubDepartment() bool {
	return d.ParentID != nil
}

// Product is a sellable item (PLU)
type Product struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	DepartmentID     uuid.UUID       `json:"department_id"`
	TaxRateID        *uuid.UUID      `json:"tax_rate_id,omitempty"`
	ListPrice        decimal.Decimal `json:"list_price"`
	AllowNonPositive bool            `json:"allow_non_positive"`
}

// Currency carries rounding precision and the rate to the base currency
type Currency struct {
	Code          string          `json:"code"`
	Sign          string          `json:"sign"`
	Name          string          `json:"name"`
	DecimalPlaces int32           `json:"decimal_places"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
}

// PaymentType is a configured tender
type PaymentType struct {
	Code   shared.PaymentType `json:"code"`
	Name   string             `json:"name"`
	Active bool               `json:"active"`
}

// KindPolicy maps a document kind to its transaction category
type KindPolicy struct {
	Kind          shared.DocumentKind        `json:"kind"`
	Category      shared.TransactionCategory `json:"category"`
	RequiresLines bool                       `json:"requires_lines"`
}

// Snapshot is the full reference data set loaded at startup
type Snapshot struct {
	TaxRates     []TaxRate     `json:"tax_rates"`
	Departments  []Department  `json:"departments"`
	Products     []Product     `json:"products"`
	Currencies   []Currency    `json:"currencies"`
	PaymentTypes []PaymentType `json:"payment_types"`
	KindPolicies []KindPolicy  `json:"kind_policies"`
}

// DefaultKindPolicies is used for every kind the snapshot does not configure
func DefaultKindPolicies() []KindPolicy {
	policies := make([]KindPolicy, 0, len(shared.DocumentKinds))
	for _, kind := range shared.DocumentKinds {
		category := shared.TransactionCategorySale
		switch kind {
		case shared.DocumentKindReturnSlip:
			category = shared.TransactionCategoryReturn
		case shared.DocumentKindPaidIn:
			category = shared.TransactionCategoryPaidIn
		case shared.DocumentKindPaidOut:
			category = shared.TransactionCategoryPaidOut
		case shared.DocumentKindExpenseSlip:
			category = shared.TransactionCategoryExpense
		}
		policies = append(policies, KindPolicy{Kind: kind, Category: category, RequiresLines: true})
	}
	return policies
}

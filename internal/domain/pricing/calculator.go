// Package pricing computes line totals and tax for product and department sales.
// It resolves tax rates through the reference catalog and returns a LineResult
// describing the line to create; it never touches the document itself.
package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/money"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/shopspring/decimal"
)

// Lookup is the part of the reference catalog the calculator reads
type Lookup interface {
	TaxRate(id uuid.UUID) (reference.TaxRate, error)
	Department(id uuid.UUID) (reference.Department, error)
	Product(id uuid.UUID) (reference.Product, error)
	Currency(code string) (reference.Currency, error)
}

// LineResult describes a priced line. Names and rates are carried so the line
// stays correct even if the reference is renamed or removed later.
type LineResult struct {
	ProductID         *uuid.UUID      `json:"product_id,omitempty"`
	ProductCode       string          `json:"product_code,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	DepartmentID      uuid.UUID       `json:"department_id"`
	DepartmentName    string          `json:"department_name"`
	SubDepartmentID   *uuid.UUID      `json:"sub_department_id,omitempty"`
	SubDepartmentName string          `json:"sub_department_name,omitempty"`
	TaxRateID         *uuid.UUID      `json:"tax_rate_id,omitempty"`
	TaxName           string          `json:"tax_name,omitempty"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	DecimalPlaces     int32           `json:"decimal_places"`
	AllowNonPositive  bool            `json:"allow_non_positive"`
}

type Calculator struct {
	lookup Lookup
}

func NewCalculator(lookup Lookup) *Calculator {
	return &Calculator{lookup: lookup}
}

// ProductSale prices a PLU sale. A nil unitPrice uses the product's list price.
func (c *Calculator) ProductSale(productID uuid.UUID, quantity decimal.Decimal, unitPrice *decimal.Decimal, currencyCode string) (LineResult, error) {
	product, err := c.lookup.Product(productID)
	if err != nil {
		return LineResult{}, err
	}
	dept, err := c.lookup.Department(product.DepartmentID)
	if err != nil {
		return LineResult{}, fmt.Errorf("failed to resolve department of product %s: %w", product.Code, err)
	}

	price := product.ListPrice
	if unitPrice != nil {
		price = *unitPrice
	}

	res, err := c.departmentResult(dept)
	if err != nil {
		return LineResult{}, err
	}
	if product.TaxRateID != nil {
		rate, err := c.lookup.TaxRate(*product.TaxRateID)
		if err != nil {
			return LineResult{}, fmt.Errorf("failed to resolve tax rate of product %s: %w", product.Code, err)
		}
		res.applyRate(rate)
	}

	id := product.ID
	res.ProductID = &id
	res.ProductCode = product.Code
	res.ProductName = product.Name
	res.AllowNonPositive = product.AllowNonPositive
	return c.finish(res, quantity, price, currencyCode)
}

// DepartmentSale prices an open-amount sale booked straight to a department
func (c *Calculator) DepartmentSale(departmentID uuid.UUID, quantity, amount decimal.Decimal, currencyCode string) (LineResult, error) {
	dept, err := c.lookup.Department(departmentID)
	if err != nil {
		return LineResult{}, err
	}
	res, err := c.departmentResult(dept)
	if err != nil {
		return LineResult{}, err
	}
	res.AllowNonPositive = dept.AllowNonPositive
	return c.finish(res, quantity, amount, currencyCode)
}

// departmentResult fills department fields and the tax rate. A sub-department
// without its own rate inherits its parent's.
func (c *Calculator) departmentResult(dept reference.Department) (LineResult, error) {
	var res LineResult
	rateID := dept.TaxRateID

	if dept.IsSubDepartment() {
		parent, err := c.lookup.Department(*dept.ParentID)
		if err != nil {
			return LineResult{}, fmt.Errorf("failed to resolve parent of department %s: %w", dept.Code, err)
		}
		subID := dept.ID
		res.SubDepartmentID = &subID
		res.SubDepartmentName = dept.Name
		res.DepartmentID = parent.ID
		res.DepartmentName = parent.Name
		if rateID == nil {
			rateID = parent.TaxRateID
		}
	} else {
		res.DepartmentID = dept.ID
		res.DepartmentName = dept.Name
	}

	res.TaxRate = decimal.Zero
	if rateID != nil {
		rate, err := c.lookup.TaxRate(*rateID)
		if err != nil {
			return LineResult{}, fmt.Errorf("failed to resolve tax rate of department %s: %w", dept.Code, err)
		}
		res.applyRate(rate)
	}
	return res, nil
}

func (r *LineResult) applyRate(rate reference.TaxRate) {
	id := rate.ID
	r.TaxRateID = &id
	r.TaxName = rate.Name
	r.TaxRate = rate.RatePercent
}

func (c *Calculator) finish(res LineResult, quantity, unitPrice decimal.Decimal, currencyCode string) (LineResult, error) {
	places, err := c.decimalPlaces(currencyCode)
	if err != nil {
		return LineResult{}, err
	}
	res.DecimalPlaces = places
	res.Quantity = quantity
	res.UnitPrice = unitPrice
	res.TotalPrice = money.Round(quantity.Mul(unitPrice), res.DecimalPlaces)

	tax, err := money.ExtractTax(res.TotalPrice, res.TaxRate, res.DecimalPlaces)
	if err != nil {
		return LineResult{}, err
	}
	res.TotalTax = tax
	return res, nil
}

// decimalPlaces resolves rounding precision. An empty code uses the default
// precision; a code missing from the catalog is an error.
func (c *Calculator) decimalPlaces(currencyCode string) (int32, error) {
	if currencyCode == "" {
		return money.DecimalPlaces(nil), nil
	}
	cur, err := c.lookup.Currency(currencyCode)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve currency %s: %w", currencyCode, err)
	}
	return money.DecimalPlaces(&cur), nil
}

package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog   *reference.Catalog
	vat20     reference.TaxRate
	vat8      reference.TaxRate
	grocery   reference.Department
	bakery    reference.Department
	untaxed   reference.Department
	cola      reference.Product
	bread     reference.Product
	deposit   reference.Product
	noRateSub reference.Department
}

func newFixture() fixture {
	f := fixture{}
	f.vat20 = reference.TaxRate{ID: uuid.New(), Code: "V20", Name: "VAT 20%", RatePercent: decimal.NewFromInt(20)}
	f.vat8 = reference.TaxRate{ID: uuid.New(), Code: "V8", Name: "VAT 8%", RatePercent: decimal.NewFromInt(8)}
	f.grocery = reference.Department{ID: uuid.New(), Code: "1", Name: "Grocery", TaxRateID: &f.vat20.ID}
	f.bakery = reference.Department{ID: uuid.New(), Code: "11", Name: "Bakery", ParentID: &f.grocery.ID, TaxRateID: &f.vat8.ID}
	f.noRateSub = reference.Department{ID: uuid.New(), Code: "12", Name: "Snacks", ParentID: &f.grocery.ID}
	f.untaxed = reference.Department{ID: uuid.New(), Code: "2", Name: "Gift cards", AllowNonPositive: true}
	f.cola = reference.Product{ID: uuid.New(), Code: "8690000000001", Name: "Cola", DepartmentID: f.grocery.ID, ListPrice: decimal.RequireFromString("11.00")}
	f.bread = reference.Product{ID: uuid.New(), Code: "8690000000002", Name: "Bread", DepartmentID: f.bakery.ID, ListPrice: decimal.RequireFromString("4.50")}
	f.deposit = reference.Product{ID: uuid.New(), Code: "DEP", Name: "Bottle deposit", DepartmentID: f.untaxed.ID, ListPrice: decimal.RequireFromString("-0.25"), AllowNonPositive: true}
	f.catalog = reference.NewCatalog(&reference.Snapshot{
		TaxRates:    []reference.TaxRate{f.vat20, f.vat8},
		Departments: []reference.Department{f.grocery, f.bakery, f.noRateSub, f.untaxed},
		Products:    []reference.Product{f.cola, f.bread, f.deposit},
		Currencies: []reference.Currency{
			{Code: "TRY", Sign: "₺", DecimalPlaces: 2, ExchangeRate: decimal.NewFromInt(1)},
			{Code: "JPY", Sign: "¥", DecimalPlaces: 0, ExchangeRate: decimal.RequireFromString("0.21")},
		},
	})
	return f
}

func TestCalculator_ProductSale(t *testing.T) {
	f := newFixture()
	calc := NewCalculator(f.catalog)

	res, err := calc.ProductSale(f.cola.ID, decimal.NewFromInt(2), nil, "TRY")
	require.NoError(t, err)

	require.NotNil(t, res.ProductID)
	assert.Equal(t, f.cola.ID, *res.ProductID)
	assert.Equal(t, "Cola", res.ProductName)
	assert.Equal(t, f.grocery.ID, res.DepartmentID)
	assert.Nil(t, res.SubDepartmentID)
	assert.Equal(t, "22.00", res.TotalPrice.StringFixed(2))
	assert.Equal(t, "3.67", res.TotalTax.StringFixed(2))
	assert.True(t, res.TaxRate.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int32(2), res.DecimalPlaces)
}

func TestCalculator_ProductSale_ExplicitPriceAndSubDepartmentRate(t *testing.T) {
	f := newFixture()
	calc := NewCalculator(f.catalog)

	price := decimal.RequireFromString("5.40")
	res, err := calc.ProductSale(f.bread.ID, decimal.NewFromInt(1), &price, "")
	require.NoError(t, err)

	assert.Equal(t, f.grocery.ID, res.DepartmentID)
	require.NotNil(t, res.SubDepartmentID)
	assert.Equal(t, f.bakery.ID, *res.SubDepartmentID)
	assert.Equal(t, "VAT 8%", res.TaxName)
	assert.Equal(t, "0.40", res.TotalTax.StringFixed(2))
}

func TestCalculator_DepartmentSale(t *testing.T) {
	f := newFixture()
	calc := NewCalculator(f.catalog)

	t.Run("SubDepartmentFallsBackToParentRate", func(t *testing.T) {
		res, err := calc.DepartmentSale(f.noRateSub.ID, decimal.NewFromInt(1), decimal.RequireFromString("12.00"), "TRY")
		require.NoError(t, err)
		require.NotNil(t, res.TaxRateID)
		assert.Equal(t, f.vat20.ID, *res.TaxRateID)
		assert.Equal(t, f.grocery.ID, res.DepartmentID)
		assert.Equal(t, "2.00", res.TotalTax.StringFixed(2))
	})

	t.Run("DepartmentWithoutRateIsUntaxed", func(t *testing.T) {
		res, err := calc.DepartmentSale(f.untaxed.ID, decimal.NewFromInt(1), decimal.RequireFromString("5.00"), "TRY")
		require.NoError(t, err)
		assert.Nil(t, res.TaxRateID)
		assert.True(t, res.TotalTax.IsZero())
		assert.True(t, res.AllowNonPositive)
	})

	t.Run("CurrencyPrecisionDrivesRounding", func(t *testing.T) {
		res, err := calc.DepartmentSale(f.grocery.ID, decimal.NewFromInt(1), decimal.NewFromInt(125), "JPY")
		require.NoError(t, err)
		assert.Equal(t, int32(0), res.DecimalPlaces)
		assert.Equal(t, "21", res.TotalTax.StringFixed(0))
	})

	t.Run("UnknownCurrency", func(t *testing.T) {
		_, err := calc.DepartmentSale(f.grocery.ID, decimal.NewFromInt(1), decimal.NewFromInt(10), "XXX")
		assert.ErrorIs(t, err, reference.ErrNotFound{})

		_, err = calc.ProductSale(f.cola.ID, decimal.NewFromInt(1), nil, "XXX")
		assert.ErrorIs(t, err, reference.ErrNotFound{})
	})

	t.Run("UnknownDepartment", func(t *testing.T) {
		_, err := calc.DepartmentSale(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, reference.ErrNotFound{}))
	})
}

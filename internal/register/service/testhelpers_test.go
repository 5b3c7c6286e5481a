package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/data/memory"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testRegister = config.RegisterConfig{
	ID:           1,
	StoreID:      "S1",
	BaseCurrency: "EUR",
}

// registerFixture is a register wired to an in-memory store. The catalog
// sells cola at 11.00 with 20% VAT and has an untaxed gift card department.
type registerFixture struct {
	store     *memory.Store
	catalog   *reference.Catalog
	cola      reference.Product
	giftCards reference.Department
	closures  *ClosureManagerImpl
	promotion *PromotionServiceImpl
	documents *DocumentServiceImpl
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()

	vat20 := reference.TaxRate{ID: uuid.New(), Code: "V20", Name: "VAT 20%", RatePercent: decimal.NewFromInt(20)}
	exempt := reference.TaxRate{ID: uuid.New(), Code: "V0", Name: "Exempt", RatePercent: decimal.Zero}
	drinks := reference.Department{ID: uuid.New(), Code: "1", Name: "Drinks", TaxRateID: &vat20.ID}
	gifts := reference.Department{ID: uuid.New(), Code: "2", Name: "Gift cards", TaxRateID: &exempt.ID}
	cola := reference.Product{ID: uuid.New(), Code: "COLA", Name: "Cola", DepartmentID: drinks.ID, ListPrice: dec("11.00")}

	catalog := reference.NewCatalog(&reference.Snapshot{
		TaxRates:    []reference.TaxRate{vat20, exempt},
		Departments: []reference.Department{drinks, gifts},
		Products:    []reference.Product{cola},
		Currencies: []reference.Currency{
			{Code: "EUR", Sign: "€", DecimalPlaces: 2, ExchangeRate: decimal.NewFromInt(1)},
			{Code: "USD", Sign: "$", DecimalPlaces: 2, ExchangeRate: dec("0.90")},
		},
		PaymentTypes: []reference.PaymentType{
			{Code: shared.PaymentTypeCash, Name: "Cash", Active: true},
			{Code: shared.PaymentTypeCreditCard, Name: "Card", Active: true},
			{Code: shared.PaymentTypeCheck, Name: "Check", Active: false},
		},
	})

	store := memory.NewStore()
	logger := newTestLogger()
	closures := NewClosureManager(logger, store, testRegister, nil)
	promotion := NewPromotionService(logger, store, nil, nil)

	return &registerFixture{
		store:     store,
		catalog:   catalog,
		cola:      cola,
		giftCards: gifts,
		closures:  closures,
		promotion: promotion,
		documents: NewDocumentService(logger, store, catalog, promotion, closures, testRegister, nil),
	}
}

func (f *registerFixture) permanentCount() int {
	return f.store.Repositories().Documents.(*memory.DocumentRepository).Count()
}

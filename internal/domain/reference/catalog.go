package reference

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/shared"
)

// SnapshotLoader loads reference data from a backing store
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Catalog is an immutable, indexed view over a Snapshot
type Catalog struct {
	taxRates     map[uuid.UUID]TaxRate
	departments  map[uuid.UUID]Department
	products     map[uuid.UUID]Product
	productCodes map[string]uuid.UUID
	currencies   map[string]Currency
	paymentTypes map[shared.PaymentType]PaymentType
	policies     map[shared.DocumentKind]KindPolicy
}

func NewCatalog(s *Snapshot) *Catalog {
	if s == nil {
		s = &Snapshot{}
	}
	c := &Catalog{
		taxRates:     make(map[uuid.UUID]TaxRate, len(s.TaxRates)),
		departments:  make(map[uuid.UUID]Department, len(s.Departments)),
		products:     make(map[uuid.UUID]Product, len(s.Products)),
		productCodes: make(map[string]uuid.UUID, len(s.Products)),
		currencies:   make(map[string]Currency, len(s.Currencies)),
		paymentTypes: make(map[shared.PaymentType]PaymentType, len(s.PaymentTypes)),
		policies:     make(map[shared.DocumentKind]KindPolicy, len(shared.DocumentKinds)),
	}
	for _, r := range s.TaxRates {
		c.taxRates[r.ID] = r
	}
	for _, d := range s.Departments {
		c.departments[d.ID] = d
	}
	for _, p := range s.Products {
		c.products[p.ID] = p
		c.productCodes[p.Code] = p.ID
	}
	for _, cur := range s.Currencies {
		c.currencies[strings.ToUpper(cur.Code)] = cur
	}
	for _, pt := range s.PaymentTypes {
		c.paymentTypes[pt.Code] = pt
	}
	for _, p := range DefaultKindPolicies() {
		c.policies[p.Kind] = p
	}
	for _, p := range s.KindPolicies {
		c.policies[p.Kind] = p
	}
	return c
}

func (c *Catalog) TaxRate(id uuid.UUID) (TaxRate, error) {
	r, ok := c.taxRates[id]
	if !ok {
		return TaxRate{}, ErrNotFound{Kind: "tax_rate", Key: id.String()}
	}
	return r, nil
}

func (c *Catalog) Department(id uuid.UUID) (Department, error) {
	d, ok := c.departments[id]
	if !ok {
		return Department{}, ErrNotFound{Kind: "department", Key: id.String()}
	}
	return d, nil
}

func (c *Catalog) Product(id uuid.UUID) (Product, error) {
	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrNotFound{Kind: "product", Key: id.String()}
	}
	return p, nil
}

// ProductByCode looks a product up by its PLU / barcode
func (c *Catalog) ProductByCode(code string) (Product, error) {
	id, ok := c.productCodes[code]
	if !ok {
		return Product{}, ErrNotFound{Kind: "product", Key: code}
	}
	return c.products[id], nil
}

func (c *Catalog) Currency(code string) (Currency, error) {
	cur, ok := c.currencies[strings.ToUpper(code)]
	if !ok {
		return Currency{}, ErrNotFound{Kind: "currency", Key: code}
	}
	return cur, nil
}

// PaymentType returns the configured tender. Unconfigured but valid codes are
// accepted so a fresh install can take cash before payment types are seeded.
func (c *Catalog) PaymentType(code shared.PaymentType) (PaymentType, error) {
	if pt, ok := c.paymentTypes[code]; ok {
		if !pt.Active {
			return PaymentType{}, ErrNotFound{Kind: "payment_type", Key: string(code)}
		}
		return pt, nil
	}
	if !code.Valid() {
		return PaymentType{}, ErrNotFound{Kind: "payment_type", Key: string(code)}
	}
	return PaymentType{Code: code, Name: string(code), Active: true}, nil
}

func (c *Catalog) KindPolicy(kind shared.DocumentKind) (KindPolicy, error) {
	p, ok := c.policies[kind]
	if !ok {
		return KindPolicy{}, ErrNotFound{Kind: "document_kind", Key: string(kind)}
	}
	return p, nil
}

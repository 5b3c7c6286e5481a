package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/platform/persistence"
)

// ReferenceRepository loads master data into a reference.Snapshot
type ReferenceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewReferenceRepository(logger *slog.Logger, querier persistence.Querier) *ReferenceRepository {
	return &ReferenceRepository{querier: querier, logger: logger}
}

func (r *ReferenceRepository) LoadSnapshot(ctx context.Context) (*reference.Snapshot, error) {
	var s reference.Snapshot
	var err error

	if s.TaxRates, err = queryAll(ctx, r, "tax_rates",
		`SELECT id, code, name, rate_percent FROM tax_rates ORDER BY code`,
		func(row pgx.Rows) (reference.TaxRate, error) {
			var x reference.TaxRate
			err := row.Scan(&x.ID, &x.Code, &x.Name, &x.RatePercent)
			return x, err
		}); err != nil {
		return nil, err
	}

	if s.Departments, err = queryAll(ctx, r, "departments",
		`SELECT id, code, name, parent_id, tax_rate_id, allow_non_positive FROM departments ORDER BY code`,
		func(row pgx.Rows) (reference.Department, error) {
			var x reference.Department
			err := row.Scan(&x.ID, &x.Code, &x.Name, &x.ParentID, &x.TaxRateID, &x.AllowNonPositive)
			return x, err
		}); err != nil {
		return nil, err
	}

	if s.Products, err = queryAll(ctx, r, "products",
		`SELECT id, code, name, department_id, tax_rate_id, list_price, allow_non_positive FROM products ORDER BY code`,
		func(row pgx.Rows) (reference.Product, error) {
			var x reference.Product
			err := row.Scan(&x.ID, &x.Code, &x.Name, &x.DepartmentID, &x.TaxRateID, &x.ListPrice, &x.AllowNonPositive)
			return x, err
		}); err != nil {
		return nil, err
	}

	if s.Currencies, err = queryAll(ctx, r, "currencies",
		`SELECT code, sign, name, decimal_places, exchange_rate FROM currencies ORDER BY code`,
		func(row pgx.Rows) (reference.Currency, error) {
			var x reference.Currency
			err := row.Scan(&x.Code, &x.Sign, &x.Name, &x.DecimalPlaces, &x.ExchangeRate)
			return x, err
		}); err != nil {
		return nil, err
	}

	if s.PaymentTypes, err = queryAll(ctx, r, "payment_types",
		`SELECT code, name, active FROM payment_types ORDER BY code`,
		func(row pgx.Rows) (reference.PaymentType, error) {
			var x reference.PaymentType
			err := row.Scan(&x.Code, &x.Name, &x.Active)
			return x, err
		}); err != nil {
		return nil, err
	}

	if s.KindPolicies, err = queryAll(ctx, r, "document_kinds",
		`SELECT kind, category, requires_lines FROM document_kinds ORDER BY kind`,
		func(row pgx.Rows) (reference.KindPolicy, error) {
			var x reference.KindPolicy
			err := row.Scan(&x.Kind, &x.Category, &x.RequiresLines)
			return x, err
		}); err != nil {
		return nil, err
	}

	r.logger.Info("Loaded reference data",
		"tax_rates", len(s.TaxRates),
		"departments", len(s.Departments),
		"products", len(s.Products),
		"currencies", len(s.Currencies),
	)
	return &s, nil
}

func queryAll[T any](ctx context.Context, r *ReferenceRepository, table, query string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to load reference data", "table", table, "error", err)
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		x, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s: %w", table, err)
	}
	return out, nil
}

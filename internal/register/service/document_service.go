package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/pricing"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/retail-pos-engine/internal/platform/metrics"
)

const defaultDecimalPlaces = 2

// DocumentServiceImpl implements the DocumentService interface
type DocumentServiceImpl struct {
	uow          storage.UnitOfWork
	catalog      *reference.Catalog
	calculator   *pricing.Calculator
	promotion    PromotionService
	closures     ClosureManager
	registerID   int
	storeID      string
	baseCurrency string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

var _ DocumentService = (*DocumentServiceImpl)(nil)

// NewDocumentService creates a document service over a loaded catalog
func NewDocumentService(
	logger *slog.Logger,
	uow storage.UnitOfWork,
	catalog *reference.Catalog,
	promotion PromotionService,
	closures ClosureManager,
	cfg config.RegisterConfig,
	m *metrics.Metrics,
) *DocumentServiceImpl {
	return &DocumentServiceImpl{
		uow:          uow,
		catalog:      catalog,
		calculator:   pricing.NewCalculator(catalog),
		promotion:    promotion,
		closures:     closures,
		registerID:   cfg.ID,
		storeID:      cfg.StoreID,
		baseCurrency: strings.ToUpper(cfg.BaseCurrency),
		metrics:      m,
		logger:       logger,
	}
}

// Begin opens a Draft document in the current closure period
func (s *DocumentServiceImpl) Begin(ctx context.Context, kind shared.DocumentKind, cashierID, customerID string) (*document.WorkingDocument, error) {
	policy, err := s.catalog.KindPolicy(kind)
	if err != nil {
		return nil, err
	}

	period, err := s.closures.Current(ctx)
	if err != nil {
		return nil, err
	}

	var doc *document.WorkingDocument
	err = s.uow.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		receipt, err := repos.Sequences.NextReceiptNumber(ctx, s.registerID)
		if err != nil {
			return err
		}
		doc = document.NewWorkingDocument(document.NewDocumentParams{
			RegisterID:      s.registerID,
			StoreID:         s.storeID,
			Policy:          policy,
			ReceiptNumber:   receipt,
			ClosurePeriodID: period.ID,
			ClosureNumber:   period.SequenceNumber,
			CashierID:       cashierID,
			CustomerID:      customerID,
			BaseCurrency:    s.baseCurrency,
			DecimalPlaces:   s.decimalPlaces(),
		})
		return repos.Working.Create(ctx, doc)
	})
	if err != nil {
		s.logger.Error("Failed to begin document",
			"kind", string(kind),
			"cashier_id", cashierID,
			"error", err)
		return nil, fmt.Errorf("failed to begin document: %w", err)
	}

	s.logger.Info("Document started",
		"document_id", doc.ID.String(),
		"transaction_unique_id", doc.TransactionUniqueID,
		"kind", string(kind))
	return doc, nil
}

func (s *DocumentServiceImpl) decimalPlaces() int32 {
	if cur, err := s.catalog.Currency(s.baseCurrency); err == nil {
		return cur.DecimalPlaces
	}
	return defaultDecimalPlaces
}

func (s *DocumentServiceImpl) Get(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return s.uow.Repositories().Working.Get(ctx, id)
}

func (s *DocumentServiceImpl) ListIncomplete(ctx context.Context) ([]*document.WorkingDocument, error) {
	return s.uow.Repositories().Working.ListByStatus(ctx, s.registerID, document.IncompleteStatuses...)
}

func (s *DocumentServiceImpl) ListSuspended(ctx context.Context) ([]*document.WorkingDocument, error) {
	return s.uow.Repositories().Working.ListByStatus(ctx, s.registerID, document.StatusSuspended)
}

// mutate loads the document, applies fn and saves it under the version it was
// loaded with
func (s *DocumentServiceImpl) mutate(ctx context.Context, id uuid.UUID, fn func(doc *document.WorkingDocument) error) (*document.WorkingDocument, error) {
	repo := s.uow.Repositories().Working
	doc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentServiceImpl) Start(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		return doc.Start()
	})
}

func (s *DocumentServiceImpl) AddProduct(ctx context.Context, id uuid.UUID, in ProductSaleInput) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		currency, err := s.pricingCurrency(doc, in.CurrencyCode)
		if err != nil {
			return err
		}
		res, err := s.calculator.ProductSale(in.ProductID, in.Quantity, in.UnitPrice, currency)
		if err != nil {
			return err
		}
		_, err = doc.AddProductLine(res)
		return err
	})
}

func (s *DocumentServiceImpl) AddDepartment(ctx context.Context, id uuid.UUID, in DepartmentSaleInput) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		currency, err := s.pricingCurrency(doc, in.CurrencyCode)
		if err != nil {
			return err
		}
		res, err := s.calculator.DepartmentSale(in.DepartmentID, in.Quantity, in.Amount, currency)
		if err != nil {
			return err
		}
		_, err = doc.AddDepartmentLine(res)
		return err
	})
}

// pricingCurrency returns the currency a sale line on doc is priced in. Lines
// are priced in the document's base currency only; an empty result falls back
// to the default precision like decimalPlaces does.
func (s *DocumentServiceImpl) pricingCurrency(doc *document.WorkingDocument, code string) (string, error) {
	code = strings.ToUpper(code)
	if code != "" && code != doc.BaseCurrency {
		return "", document.ErrCurrencyMismatch{DocumentCurrency: doc.BaseCurrency, Currency: code}
	}
	if _, err := s.catalog.Currency(doc.BaseCurrency); err != nil {
		return "", nil
	}
	return doc.BaseCurrency, nil
}

func (s *DocumentServiceImpl) currencyOr(code string) string {
	if code == "" {
		return s.baseCurrency
	}
	return strings.ToUpper(code)
}

func (s *DocumentServiceImpl) ApplyDiscount(ctx context.Context, id uuid.UUID, target *uuid.UUID, spec document.DiscountSpec) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.ApplyDiscount(target, spec)
		return err
	})
}

// AddPayment checks the tender against the catalog. A foreign currency
// payment without an explicit rate uses the catalog exchange rate.
func (s *DocumentServiceImpl) AddPayment(ctx context.Context, id uuid.UUID, in document.PaymentInput) (*document.WorkingDocument, error) {
	if _, err := s.catalog.PaymentType(in.Type); err != nil {
		return nil, err
	}
	in.CurrencyCode = s.currencyOr(in.CurrencyCode)
	if in.CurrencyCode != s.baseCurrency && in.ExchangeRate.IsZero() {
		cur, err := s.catalog.Currency(in.CurrencyCode)
		if err != nil {
			return nil, err
		}
		in.ExchangeRate = cur.ExchangeRate
	}

	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddPayment(in)
		return err
	})
}

func (s *DocumentServiceImpl) AddTip(ctx context.Context, id, paymentLineID uuid.UUID, amount decimal.Decimal) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddTip(paymentLineID, amount)
		return err
	})
}

func (s *DocumentServiceImpl) AddNote(ctx context.Context, id uuid.UUID, text string) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddNote(text)
		return err
	})
}

func (s *DocumentServiceImpl) AddSurcharge(ctx context.Context, id uuid.UUID, amount decimal.Decimal, reason string) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddSurcharge(amount, reason)
		return err
	})
}

func (s *DocumentServiceImpl) AddRefund(ctx context.Context, id uuid.UUID, in document.RefundInput) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddRefund(in)
		return err
	})
}

func (s *DocumentServiceImpl) AddDelivery(ctx context.Context, id uuid.UUID, in document.DeliveryInput) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddDelivery(in)
		return err
	})
}

func (s *DocumentServiceImpl) AddKitchenOrder(ctx context.Context, id, productLineID uuid.UUID, station, instructions string) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddKitchenOrder(productLineID, station, instructions)
		return err
	})
}

func (s *DocumentServiceImpl) AddLoyalty(ctx context.Context, id uuid.UUID, cardNumber string, earned, redeemed decimal.Decimal) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.AddLoyalty(cardNumber, earned, redeemed)
		return err
	})
}

func (s *DocumentServiceImpl) SetFiscal(ctx context.Context, id uuid.UUID, in document.FiscalInput) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		_, err := doc.SetFiscal(in)
		return err
	})
}

func (s *DocumentServiceImpl) CancelLine(ctx context.Context, id, lineID uuid.UUID) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		return doc.CancelLine(lineID)
	})
}

func (s *DocumentServiceImpl) Suspend(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		return doc.Suspend()
	})
}

func (s *DocumentServiceImpl) Resume(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return s.mutate(ctx, id, func(doc *document.WorkingDocument) error {
		return doc.Resume()
	})
}

// Discard drops an unfinished document; no permanent record is written
func (s *DocumentServiceImpl) Discard(ctx context.Context, id uuid.UUID) error {
	repo := s.uow.Repositories().Working
	doc, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := doc.Discard(); err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to discard document", "document_id", id.String(), "error", err)
		return fmt.Errorf("failed to discard document: %w", err)
	}

	s.metrics.DocumentDiscarded()
	s.logger.Info("Document discarded", "document_id", id.String())
	return nil
}

// Complete saves the terminal state before promoting, so a failed promotion
// can be retried with the same document. A completed document that is still
// in working storage skips straight to promotion.
func (s *DocumentServiceImpl) Complete(ctx context.Context, id uuid.UUID, cancel bool, reason string) (*document.PermanentDocument, error) {
	repo := s.uow.Repositories().Working
	doc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !doc.Status.Terminal() {
		period, err := s.closures.Current(ctx)
		if err != nil {
			return nil, err
		}
		if doc.ClosurePeriodID != period.ID {
			s.logger.Info("Moving document to the open closure period",
				"document_id", doc.ID.String(),
				"from_period_id", doc.ClosurePeriodID.String(),
				"to_period_id", period.ID.String())
			if err := doc.MoveToPeriod(period.ID, period.SequenceNumber); err != nil {
				return nil, err
			}
		}
		if err := doc.Complete(cancel, reason); err != nil {
			return nil, err
		}
		if err := repo.Save(ctx, doc); err != nil {
			return nil, err
		}
	}

	perm, err := s.promotion.Promote(ctx, doc)
	if err != nil {
		return nil, err
	}

	if _, err := s.closures.Ingest(ctx, perm); err != nil {
		s.logger.Warn("Closure ingestion deferred to outbox replay",
			"document_id", perm.ID.String(),
			"error", err)
	}
	return perm, nil
}

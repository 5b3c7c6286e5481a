package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/register/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) working(args mock.Arguments) (*document.WorkingDocument, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.WorkingDocument), args.Error(1)
}

func (m *MockDocumentService) Begin(ctx context.Context, kind shared.DocumentKind, cashierID, customerID string) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, kind, cashierID, customerID))
}

func (m *MockDocumentService) Get(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id))
}

func (m *MockDocumentService) ListIncomplete(ctx context.Context) ([]*document.WorkingDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*document.WorkingDocument), args.Error(1)
}

func (m *MockDocumentService) ListSuspended(ctx context.Context) ([]*document.WorkingDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*document.WorkingDocument), args.Error(1)
}

func (m *MockDocumentService) Start(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id))
}

func (m *MockDocumentService) AddProduct(ctx context.Context, id uuid.UUID, in service.ProductSaleInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) AddDepartment(ctx context.Context, id uuid.UUID, in service.DepartmentSaleInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) ApplyDiscount(ctx context.Context, id uuid.UUID, target *uuid.UUID, spec document.DiscountSpec) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, target, spec))
}

func (m *MockDocumentService) AddPayment(ctx context.Context, id uuid.UUID, in document.PaymentInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) AddTip(ctx context.Context, id, paymentLineID uuid.UUID, amount decimal.Decimal) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, paymentLineID, amount))
}

func (m *MockDocumentService) AddNote(ctx context.Context, id uuid.UUID, text string) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, text))
}

func (m *MockDocumentService) AddSurcharge(ctx context.Context, id uuid.UUID, amount decimal.Decimal, reason string) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, amount, reason))
}

func (m *MockDocumentService) AddRefund(ctx context.Context, id uuid.UUID, in document.RefundInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) AddDelivery(ctx context.Context, id uuid.UUID, in document.DeliveryInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) AddKitchenOrder(ctx context.Context, id, productLineID uuid.UUID, station, instructions string) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, productLineID, station, instructions))
}

func (m *MockDocumentService) AddLoyalty(ctx context.Context, id uuid.UUID, cardNumber string, earned, redeemed decimal.Decimal) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, cardNumber, earned, redeemed))
}

func (m *MockDocumentService) SetFiscal(ctx context.Context, id uuid.UUID, in document.FiscalInput) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, in))
}

func (m *MockDocumentService) CancelLine(ctx context.Context, id, lineID uuid.UUID) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id, lineID))
}

func (m *MockDocumentService) Suspend(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id))
}

func (m *MockDocumentService) Resume(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	return m.working(m.Called(ctx, id))
}

func (m *MockDocumentService) Discard(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentService) Complete(ctx context.Context, id uuid.UUID, cancel bool, reason string) (*document.PermanentDocument, error) {
	args := m.Called(ctx, id, cancel, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.PermanentDocument), args.Error(1)
}

type MockClosureManager struct {
	mock.Mock
}

func (m *MockClosureManager) EnsureOpenPeriod(ctx context.Context) (*closure.Period, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closure.Period), args.Error(1)
}

func (m *MockClosureManager) Current(ctx context.Context) (*closure.Period, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*closure.Period), args.Error(1)
}

func (m *MockClosureManager) Ingest(ctx context.Context, doc *document.PermanentDocument) (bool, error) {
	args := m.Called(ctx, doc)
	return args.Bool(0), args.Error(1)
}

func (m *MockClosureManager) Close(ctx context.Context, operator string, actualCash *decimal.Decimal, note string) (*closure.Period, *closure.Period, error) {
	args := m.Called(ctx, operator, actualCash, note)
	var closed, next *closure.Period
	if args.Get(0) != nil {
		closed = args.Get(0).(*closure.Period)
	}
	if args.Get(1) != nil {
		next = args.Get(1).(*closure.Period)
	}
	return closed, next, args.Error(2)
}

package shared

import "errors"

var (
	ErrInvalidDocumentKind = errors.New("invalid document kind")
	ErrInvalidPaymentType  = errors.New("invalid payment type")
)

// DocumentKind identifies the fiscal document a sale produces
type DocumentKind string

const (
	DocumentKindFiscalReceipt               DocumentKind = "FISCAL_RECEIPT"
	DocumentKindElectronicReceipt           DocumentKind = "ELECTRONIC_RECEIPT"
	DocumentKindNoneFiscalReceipt           DocumentKind = "NONE_FISCAL_RECEIPT"
	DocumentKindInvoice                     DocumentKind = "INVOICE"
	DocumentKindElectronicInvoice           DocumentKind = "ELECTRONIC_INVOICE"
	DocumentKindElectronicCorporateInvoice  DocumentKind = "ELECTRONIC_CORPORATE_INVOICE"
	DocumentKindElectronicIndividualInvoice DocumentKind = "ELECTRONIC_INDIVIDUAL_INVOICE"
	DocumentKindDiplomaticInvoice           DocumentKind = "DIPLOMATIC_INVOICE"
	DocumentKindWaybill                     DocumentKind = "WAYBILL"
	DocumentKindPaidOut                     DocumentKind = "POS_PAID_OUT"
	DocumentKindPaidIn                      DocumentKind = "POS_PAID_IN"
	DocumentKindReturnSlip                  DocumentKind = "RETURN_SLIP"
	DocumentKindExpenseSlip                 DocumentKind = "EXPENSE_SLIP"
)

// DocumentKinds lists every supported kind in display order
var DocumentKinds = []DocumentKind{
	DocumentKindFiscalReceipt,
	DocumentKindElectronicReceipt,
	DocumentKindNoneFiscalReceipt,
	DocumentKindInvoice,
	DocumentKindElectronicInvoice,
	DocumentKindElectronicCorporateInvoice,
	DocumentKindElectronicIndividualInvoice,
	DocumentKindDiplomaticInvoice,
	DocumentKindWaybill,
	DocumentKindPaidOut,
	DocumentKindPaidIn,
	DocumentKindReturnSlip,
	DocumentKindExpenseSlip,
}

func (k DocumentKind) Valid() bool {
	for _, known := range DocumentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TransactionCategory groups document kinds by their effect on the till
type TransactionCategory string

const (
	TransactionCategorySale    TransactionCategory = "SALE"
	TransactionCategoryReturn  TransactionCategory = "RETURN"
	TransactionCategoryPaidIn  TransactionCategory = "PAID_IN"
	TransactionCategoryPaidOut TransactionCategory = "PAID_OUT"
	TransactionCategoryExpense TransactionCategory = "EXPENSE"
)

// Sign is +1 for money entering the register and -1 for money leaving it
func (c TransactionCategory) Sign() int64 {
	switch c {
	case TransactionCategoryReturn, TransactionCategoryPaidOut, TransactionCategoryExpense:
		return -1
	default:
		return 1
	}
}

// PaymentType defines the tender used for a payment line
type PaymentType string

const (
	PaymentTypeNone           PaymentType = "NONE"
	PaymentTypeCash           PaymentType = "CASH"
	PaymentTypeCreditCard     PaymentType = "CREDIT_CARD"
	PaymentTypeCheck          PaymentType = "CHECK"
	PaymentTypeOnCredit       PaymentType = "ON_CREDIT"
	PaymentTypePrepaidCard    PaymentType = "PREPAID_CARD"
	PaymentTypeMobile         PaymentType = "MOBILE"
	PaymentTypeBonus          PaymentType = "BONUS"
	PaymentTypeExchange       PaymentType = "EXCHANGE"
	PaymentTypeCurrentAccount PaymentType = "CURRENT_ACCOUNT"
	PaymentTypeBankTransfer   PaymentType = "BANK_TRANSFER"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentTypeNone, PaymentTypeCash, PaymentTypeCreditCard, PaymentTypeCheck,
		PaymentTypeOnCredit, PaymentTypePrepaidCard, PaymentTypeMobile, PaymentTypeBonus,
		PaymentTypeExchange, PaymentTypeCurrentAccount, PaymentTypeBankTransfer:
		return true
	}
	return false
}

// DiscountType defines how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercent DiscountType = "PERCENT"
	DiscountTypeAmount  DiscountType = "AMOUNT"
)

// EventType identifies what an outbox message announces
type EventType string

const (
	EventTypeDocumentPromoted EventType = "document.promoted"
	EventTypeClosureClosed    EventType = "closure.closed"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

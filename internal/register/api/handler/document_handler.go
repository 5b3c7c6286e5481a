package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/register/api/middleware"
	"github.com/retail-pos-engine/internal/register/service"
)

const statusSuspended = "suspended"

// DocumentHandler handles HTTP requests for working documents
type DocumentHandler struct {
	documentService service.DocumentService
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(logger *slog.Logger, documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// Begin opens a Draft document for the requesting cashier
func (h *DocumentHandler) Begin(c *gin.Context) {
	var req BeginDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cashierID := req.CashierID
	if cashierID == "" {
		cashierID = middleware.GetCashierID(c)
	}
	if cashierID == "" {
		RespondBadRequest(c, "cashier_id or the "+middleware.CashierIDHeader+" header is required")
		return
	}

	kind := shared.DocumentKind(strings.ToUpper(req.Kind))
	if !kind.Valid() {
		RespondBadRequest(c, "Invalid document kind")
		return
	}

	doc, err := h.documentService.Begin(c.Request.Context(), kind, cashierID, req.CustomerID)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapWorkingDocument(doc))
}

// List returns incomplete documents, or only suspended ones with
// ?status=suspended
func (h *DocumentHandler) List(c *gin.Context) {
	var (
		docs []*document.WorkingDocument
		err  error
	)
	switch strings.ToLower(c.Query("status")) {
	case "":
		docs, err = h.documentService.ListIncomplete(c.Request.Context())
	case statusSuspended:
		docs, err = h.documentService.ListSuspended(c.Request.Context())
	default:
		RespondBadRequest(c, "Invalid status filter")
		return
	}
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}

	response := DocumentListResponse{Documents: make([]DocumentResponse, 0, len(docs))}
	for _, doc := range docs {
		response.Documents = append(response.Documents, mapWorkingDocument(doc))
	}
	RespondOK(c, response)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	h.respond(c)(h.documentService.Get(c.Request.Context(), id))
}

// Discard deletes an unfinished document
func (h *DocumentHandler) Discard(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	if err := h.documentService.Discard(c.Request.Context(), id); err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

func (h *DocumentHandler) Start(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	h.respond(c)(h.documentService.Start(c.Request.Context(), id))
}

func (h *DocumentHandler) AddProduct(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddProductRequest
	if !h.bind(c, &req) {
		return
	}
	in := service.ProductSaleInput{
		ProductID:    uuid.MustParse(req.ProductID),
		Quantity:     quantityOrOne(req.Quantity),
		UnitPrice:    req.UnitPrice,
		CurrencyCode: req.CurrencyCode,
	}
	h.respond(c)(h.documentService.AddProduct(c.Request.Context(), id, in))
}

func (h *DocumentHandler) AddDepartment(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddDepartmentRequest
	if !h.bind(c, &req) {
		return
	}
	in := service.DepartmentSaleInput{
		DepartmentID: uuid.MustParse(req.DepartmentID),
		Quantity:     quantityOrOne(req.Quantity),
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
	}
	h.respond(c)(h.documentService.AddDepartment(c.Request.Context(), id, in))
}

func (h *DocumentHandler) ApplyDiscount(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req ApplyDiscountRequest
	if !h.bind(c, &req) {
		return
	}
	spec := document.DiscountSpec{
		Type:   shared.DiscountType(req.Type),
		Value:  req.Value,
		Code:   req.Code,
		Reason: req.Reason,
	}
	h.respond(c)(h.documentService.ApplyDiscount(c.Request.Context(), id, optionalID(req.TargetLineID), spec))
}

func (h *DocumentHandler) AddPayment(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddPaymentRequest
	if !h.bind(c, &req) {
		return
	}
	in := document.PaymentInput{
		Type:           shared.PaymentType(strings.ToUpper(req.PaymentType)),
		CurrencyCode:   req.CurrencyCode,
		CurrencyAmount: req.Amount,
		ExchangeRate:   req.ExchangeRate,
	}
	h.respond(c)(h.documentService.AddPayment(c.Request.Context(), id, in))
}

func (h *DocumentHandler) AddTip(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddTipRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.documentService.AddTip(c.Request.Context(), id, uuid.MustParse(req.PaymentLineID), req.Amount))
}

func (h *DocumentHandler) AddNote(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddNoteRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.documentService.AddNote(c.Request.Context(), id, req.Text))
}

func (h *DocumentHandler) AddSurcharge(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddSurchargeRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.documentService.AddSurcharge(c.Request.Context(), id, req.Amount, req.Reason))
}

func (h *DocumentHandler) AddRefund(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddRefundRequest
	if !h.bind(c, &req) {
		return
	}
	in := document.RefundInput{
		ProductLineID:      optionalID(req.ProductLineID),
		OriginalDocumentID: optionalID(req.OriginalDocumentID),
		Quantity:           req.Quantity,
		Amount:             req.Amount,
		Reason:             req.Reason,
	}
	h.respond(c)(h.documentService.AddRefund(c.Request.Context(), id, in))
}

func (h *DocumentHandler) AddDelivery(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddDeliveryRequest
	if !h.bind(c, &req) {
		return
	}
	in := document.DeliveryInput{
		Address:     req.Address,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		ScheduledAt: req.ScheduledAt,
	}
	h.respond(c)(h.documentService.AddDelivery(c.Request.Context(), id, in))
}

func (h *DocumentHandler) AddKitchenOrder(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddKitchenOrderRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.documentService.AddKitchenOrder(c.Request.Context(), id, uuid.MustParse(req.ProductLineID), req.Station, req.Instructions))
}

func (h *DocumentHandler) AddLoyalty(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req AddLoyaltyRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c)(h.documentService.AddLoyalty(c.Request.Context(), id, req.CardNumber, req.PointsEarned, req.PointsRedeemed))
}

func (h *DocumentHandler) SetFiscal(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req SetFiscalRequest
	if !h.bind(c, &req) {
		return
	}
	in := document.FiscalInput{
		FiscalNumber: req.FiscalNumber,
		DeviceSerial: req.DeviceSerial,
		ZNumber:      req.ZNumber,
		SignedAt:     req.SignedAt,
	}
	h.respond(c)(h.documentService.SetFiscal(c.Request.Context(), id, in))
}

func (h *DocumentHandler) CancelLine(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		RespondBadRequest(c, "Invalid line ID")
		return
	}
	h.respond(c)(h.documentService.CancelLine(c.Request.Context(), id, lineID))
}

func (h *DocumentHandler) Suspend(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	h.respond(c)(h.documentService.Suspend(c.Request.Context(), id))
}

func (h *DocumentHandler) Resume(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	h.respond(c)(h.documentService.Resume(c.Request.Context(), id))
}

// Complete finishes, promotes and ingests the document and returns the
// permanent record
func (h *DocumentHandler) Complete(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}
	var req CompleteRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}

	doc, err := h.documentService.Complete(c.Request.Context(), id, req.Cancel, req.Reason)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapPermanentDocument(doc))
}

func (h *DocumentHandler) documentID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Debug("Invalid document ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid document ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *DocumentHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// respond renders the result of a document mutation
func (h *DocumentHandler) respond(c *gin.Context) func(*document.WorkingDocument, error) {
	return func(doc *document.WorkingDocument, err error) {
		if err != nil {
			RespondWithDomainError(c, h.logger, err)
			return
		}
		RespondOK(c, mapWorkingDocument(doc))
	}
}

func quantityOrOne(q *decimal.Decimal) decimal.Decimal {
	if q == nil {
		return decimal.NewFromInt(1)
	}
	return *q
}

// optionalID parses an id the binding already validated
func optionalID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id := uuid.MustParse(*s)
	return &id
}

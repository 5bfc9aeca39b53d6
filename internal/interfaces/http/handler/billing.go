package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/interfaces/http/dto"
)

// BillingHandler exposes credit note issuance/application and milestone
// invoicing.
type BillingHandler struct {
	BaseHandler
	credits    *workflow.CreditNoteService
	milestones *workflow.MilestoneService
}

// NewBillingHandler creates a BillingHandler
func NewBillingHandler(credits *workflow.CreditNoteService, milestones *workflow.MilestoneService) *BillingHandler {
	return &BillingHandler{
		credits:    credits,
		milestones: milestones,
	}
}

// issueCreditRequest is the body for POST /credits
type issueCreditRequest struct {
	InvoiceID string          `json:"invoice_id" binding:"required,uuid"`
	Kind      string          `json:"kind" binding:"required,oneof=full partial"`
	Amount    decimal.Decimal `json:"amount"`
}

// IssueCredit handles POST /credits
func (h *BillingHandler) IssueCredit(c *gin.Context) {
	var req issueCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}
	kind := billing.CreditKind(req.Kind)
	if kind == billing.CreditKindPartial && req.Amount.LessThanOrEqual(decimal.Zero) {
		h.Error(c, 400, dto.ErrCodeValidation, "amount must be positive for a partial credit")
		return
	}

	note, err := h.credits.Issue(c.Request.Context(), workflow.CreditNoteRequest{
		InvoiceID: uuid.MustParse(req.InvoiceID),
		Kind:      kind,
		Amount:    req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// applyCreditRequest is the body for POST /credits/:id/apply
type applyCreditRequest struct {
	TargetInvoiceID string `json:"target_invoice_id" binding:"required,uuid"`
}

// ApplyCredit handles POST /credits/:id/apply
func (h *BillingHandler) ApplyCredit(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}
	var req applyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	note, err := h.credits.Apply(c.Request.Context(),
		uuid.MustParse(uri.ID), uuid.MustParse(req.TargetInvoiceID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// InvoiceDeliverable handles POST /deliverables/:id/invoice
func (h *BillingHandler) InvoiceDeliverable(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	invoice, err := h.milestones.InvoiceDeliverable(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

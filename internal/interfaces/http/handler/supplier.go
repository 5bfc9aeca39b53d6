package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/interfaces/http/dto"
)

// SupplierHandler exposes the supplier invoice approval gate
type SupplierHandler struct {
	BaseHandler
	approvals *workflow.SupplierApprovalService
}

// NewSupplierHandler creates a SupplierHandler
func NewSupplierHandler(approvals *workflow.SupplierApprovalService) *SupplierHandler {
	return &SupplierHandler{approvals: approvals}
}

// approveRequest is the body for POST /supplier-invoices/:id/approve.
// Force overrides a blocked deviation gate; the override is ledgered.
type approveRequest struct {
	ApproverID           string     `json:"approver_id" binding:"required,uuid"`
	Force                bool       `json:"force"`
	PaymentScheduledDate *time.Time `json:"payment_scheduled_date"`
}

// Approve handles POST /supplier-invoices/:id/approve
func (h *SupplierHandler) Approve(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	invoice, err := h.approvals.Approve(c.Request.Context(),
		uuid.MustParse(uri.ID), uuid.MustParse(req.ApproverID), req.Force, req.PaymentScheduledDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// rejectRequest is the body for POST /supplier-invoices/:id/reject
type rejectRequest struct {
	ApproverID string `json:"approver_id" binding:"required,uuid"`
}

// Reject handles POST /supplier-invoices/:id/reject
func (h *SupplierHandler) Reject(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	invoice, err := h.approvals.Reject(c.Request.Context(),
		uuid.MustParse(uri.ID), uuid.MustParse(req.ApproverID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/finflow/backend/internal/application/treasury"
	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/interfaces/http/dto"
)

// AutomationHandler exposes the manual automation triggers and the
// execution ledger query.
type AutomationHandler struct {
	BaseHandler
	billing *workflow.RecurringBillingService
	reports *treasury.ReportService
	ledger  *automation.Ledger
}

// NewAutomationHandler creates an AutomationHandler
func NewAutomationHandler(
	billing *workflow.RecurringBillingService,
	reports *treasury.ReportService,
	ledger *automation.Ledger,
) *AutomationHandler {
	return &AutomationHandler{
		billing: billing,
		reports: reports,
		ledger:  ledger,
	}
}

// RunBilling handles POST /automation/billing/run. The manual trigger
// shares the ledger guard with the scheduled pass, so running it twice
// in one day only skips.
func (h *AutomationHandler) RunBilling(c *gin.Context) {
	summary, err := h.billing.RunDailyPass(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RunReport handles POST /automation/reports/run
func (h *AutomationHandler) RunReport(c *gin.Context) {
	report, err := h.reports.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if report == nil {
		h.Success(c, gin.H{"already_sent": true})
		return
	}
	h.Success(c, report)
}

// executionQuery carries the ledger listing parameters
type executionQuery struct {
	dto.ListRequest
	Workflow string `form:"workflow"`
	Status   string `form:"status" binding:"omitempty,oneof=success failed warning partial skipped"`
}

// ListExecutions handles GET /automation/executions
func (h *AutomationHandler) ListExecutions(c *gin.Context) {
	var q executionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	filter := shared.Filter{
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
		SortBy:  q.SortBy,
		SortDir: shared.SortDirection(q.SortDir),
	}

	entries, err := h.ledger.History(c.Request.Context(), q.Workflow,
		automation.ExecutionStatus(q.Status), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(200, dto.NewSuccessResponseWithMeta(entries, page, pageSize, len(entries)))
}

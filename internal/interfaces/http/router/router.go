// Package router wires the HTTP surface: signed webhook intake, manual
// automation triggers, the approval gate, and the observability reads.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/interfaces/http/handler"
	"github.com/finflow/backend/internal/interfaces/http/middleware"
)

// maxBodyBytes caps inbound request bodies; webhook payloads are small
const maxBodyBytes = 1 << 20

// Handlers bundles the route handlers for registration
type Handlers struct {
	Webhooks   *handler.WebhookHandler
	Automation *handler.AutomationHandler
	Billing    *handler.BillingHandler
	Suppliers  *handler.SupplierHandler
	Operations *handler.OperationsHandler
}

// Setup builds the gin engine with middleware and all routes registered
func Setup(h Handlers, logger *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.BodyLimit(maxBodyBytes),
	)

	engine.GET("/api/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")

	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/payments", h.Webhooks.ReceivePayment)
		webhooks.POST("/signatures", h.Webhooks.ReceiveSignature)
	}

	automation := api.Group("/automation")
	{
		automation.POST("/billing/run", h.Automation.RunBilling)
		automation.POST("/reports/run", h.Automation.RunReport)
		automation.GET("/executions", h.Automation.ListExecutions)
	}

	api.POST("/credits", h.Billing.IssueCredit)
	api.POST("/credits/:id/apply", h.Billing.ApplyCredit)
	api.POST("/deliverables/:id/invoice", h.Billing.InvoiceDeliverable)

	api.POST("/supplier-invoices/:id/approve", h.Suppliers.Approve)
	api.POST("/supplier-invoices/:id/reject", h.Suppliers.Reject)

	api.POST("/tickets/:id/close", h.Operations.CloseTicket)
	api.POST("/leads/:id/qualify", h.Operations.QualifyLead)
	api.GET("/treasury/forecast", h.Operations.Forecast)

	return engine
}

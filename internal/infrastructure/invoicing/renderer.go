package invoicing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/domain/billing"
)

// Renderer adapts the invoicing client to the workflow rendering port.
// Each stored invoice becomes a single-position document request.
type Renderer struct {
	client *Client
	logger *zap.Logger
}

// NewRenderer creates a Renderer over the invoicing client
func NewRenderer(client *Client, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{client: client, logger: logger}
}

// Render implements workflow.InvoiceRenderer
func (r *Renderer) Render(ctx context.Context, inv *billing.Invoice) error {
	result, err := r.client.CreateInvoice(ctx, CreateRequest{
		Number:   inv.Number,
		Company:  inv.CompanyID.String(),
		DueDate:  inv.DueDate,
		Currency: string(inv.Currency),
		Items: []LineItem{
			{
				Description: lineDescription(inv.Type),
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   inv.Amount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}

	r.logger.Debug("invoice document submitted",
		zap.String("number", inv.Number),
		zap.String("external_id", result.ExternalID),
		zap.Bool("simulated", result.Simulated))
	return nil
}

func lineDescription(t billing.InvoiceType) string {
	switch t {
	case billing.InvoiceTypeDeposit:
		return "Project deposit"
	case billing.InvoiceTypeMilestone:
		return "Milestone delivery"
	case billing.InvoiceTypeRecurring:
		return "Subscription period"
	case billing.InvoiceTypeSupport:
		return "Support services"
	case billing.InvoiceTypeFinal:
		return "Final project balance"
	default:
		return "Services rendered"
	}
}

var _ workflow.InvoiceRenderer = (*Renderer)(nil)

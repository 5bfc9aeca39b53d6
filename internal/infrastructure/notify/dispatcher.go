package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/shared"
)

// MailDispatcher consumes domain events after the financial mutation has
// committed and turns them into notification mail. It runs off the event
// bus so a mail failure can never roll back or delay an invoice.
type MailDispatcher struct {
	mailer   Mailer
	opsInbox string
	logger   *zap.Logger
}

// NewMailDispatcher creates a MailDispatcher. opsInbox receives the
// operational alerts (unmatched payments).
func NewMailDispatcher(mailer Mailer, opsInbox string, logger *zap.Logger) *MailDispatcher {
	return &MailDispatcher{
		mailer:   mailer,
		opsInbox: opsInbox,
		logger:   logger,
	}
}

// EventTypes implements shared.EventHandler
func (d *MailDispatcher) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoicePaid,
		finance.EventTypePaymentUnmatched,
	}
}

// Handle implements shared.EventHandler
func (d *MailDispatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	var mail Mail
	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		mail = Mail{
			To:      d.opsInbox,
			Subject: fmt.Sprintf("Invoice %s issued", e.Number),
			Body:    fmt.Sprintf("Invoice %s over %s is due %s.", e.Number, e.Total, e.DueDate.Format("2006-01-02")),
		}
	case *billing.InvoicePaidEvent:
		mail = Mail{
			To:      d.opsInbox,
			Subject: fmt.Sprintf("Invoice %s paid", e.Number),
			Body:    fmt.Sprintf("Payment %s settled invoice %s.", e.TransactionID, e.Number),
		}
	case *finance.PaymentUnmatchedEvent:
		mail = Mail{
			To:      d.opsInbox,
			Subject: "Unmatched payment needs reconciliation",
			Body: fmt.Sprintf("Payment %s over %s %s (reference %q) could not be matched to an invoice.",
				e.TransactionID, e.Amount, e.Currency, e.Reference),
		}
	default:
		return nil
	}

	if err := d.mailer.Send(ctx, mail); err != nil {
		d.logger.Warn("notification mail failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*MailDispatcher)(nil)

package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/support"
)

// TicketCloseResult reports how a ticket was closed
type TicketCloseResult struct {
	Ticket  *support.Ticket  `json:"ticket"`
	Invoice *billing.Invoice `json:"invoice,omitempty"`
}

// SupportTicketService closes tickets and bills uncovered support work
type SupportTicketService struct {
	tickets       support.TicketRepository
	subscriptions billing.SubscriptionRepository
	invoices      billing.InvoiceRepository
	numbers       *billing.NumberGenerator
	ledger        *automation.Ledger
	bus           shared.EventBus
	renderer      InvoiceRenderer
	logger        *zap.Logger
	dueDays       int
	now           func() time.Time
}

// SupportTicketConfig holds the service dependencies
type SupportTicketConfig struct {
	Tickets       support.TicketRepository
	Subscriptions billing.SubscriptionRepository
	Invoices      billing.InvoiceRepository
	Numbers       *billing.NumberGenerator
	Ledger        *automation.Ledger
	Bus           shared.EventBus
	Renderer      InvoiceRenderer
	Logger        *zap.Logger
	DueDays       int
}

// NewSupportTicketService creates a SupportTicketService
func NewSupportTicketService(cfg SupportTicketConfig) *SupportTicketService {
	dueDays := cfg.DueDays
	if dueDays <= 0 {
		dueDays = 30
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportTicketService{
		tickets:       cfg.Tickets,
		subscriptions: cfg.Subscriptions,
		invoices:      cfg.Invoices,
		numbers:       cfg.Numbers,
		ledger:        cfg.Ledger,
		bus:           cfg.Bus,
		renderer:      cfg.Renderer,
		logger:        logger,
		dueDays:       dueDays,
		now:           time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *SupportTicketService) WithClock(now func() time.Time) *SupportTicketService {
	s.now = now
	return s
}

// CloseTicket closes the ticket. Billable hours become a support invoice
// linked on the ticket unless an active subscription covers the work;
// everything else closes without billing. A cancelled or missing
// subscription does not cover anything.
func (s *SupportTicketService) CloseTicket(ctx context.Context, ticketID uuid.UUID) (*TicketCloseResult, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	invoiceOnClose := ticket.ShouldInvoiceOnClose()
	if invoiceOnClose && ticket.SubscriptionID != nil {
		covered, err := s.subscriptionCovers(ctx, *ticket.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("check subscription coverage: %w", err)
		}
		if covered {
			invoiceOnClose = false
		}
	}

	if !invoiceOnClose {
		if err := ticket.Close(now, nil); err != nil {
			return nil, err
		}
		if err := s.tickets.Save(ctx, ticket); err != nil {
			s.ledger.Record(ctx, automation.RuleTicketClosed, "ticket", ticket.ID.String(),
				automation.ExecutionStatusFailed,
				ledgerPayload(map[string]string{"subject": ticket.Subject}), err.Error())
			return nil, fmt.Errorf("save closed ticket: %w", err)
		}
		s.ledger.Record(ctx, automation.RuleTicketClosed, "ticket", ticket.ID.String(),
			automation.ExecutionStatusSuccess,
			ledgerPayload(map[string]string{"subject": ticket.Subject}),
			`{"invoiced":false}`)
		return &TicketCloseResult{Ticket: ticket}, nil
	}

	number, err := s.numbers.Next(ctx, billing.InvoiceNumberPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("support invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(
		number,
		ticket.CompanyID,
		billing.InvoiceTypeSupport,
		ticket.BillableAmount(),
		billing.DefaultVATRate,
		"",
		now.AddDate(0, 0, s.dueDays),
	)
	if err != nil {
		return nil, err
	}

	if err := ticket.Close(now, &invoice.ID); err != nil {
		return nil, err
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		s.ledger.Record(ctx, automation.RuleTicketClosed, "ticket", ticket.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"subject": ticket.Subject}), err.Error())
		return nil, fmt.Errorf("save support invoice: %w", err)
	}
	if err := s.tickets.Save(ctx, ticket); err != nil {
		s.ledger.Record(ctx, automation.RuleTicketClosed, "ticket", ticket.ID.String(),
			automation.ExecutionStatusFailed,
			ledgerPayload(map[string]string{"subject": ticket.Subject, "invoice": invoice.Number}), err.Error())
		return nil, fmt.Errorf("save closed ticket: %w", err)
	}

	if s.renderer != nil {
		if err := s.renderer.Render(ctx, invoice); err != nil {
			s.logger.Warn("support invoice rendering failed",
				zap.String("number", invoice.Number),
				zap.Error(err))
		}
	}

	s.ledger.Record(ctx, automation.RuleTicketClosed, "ticket", ticket.ID.String(),
		automation.ExecutionStatusSuccess,
		ledgerPayload(map[string]string{
			"subject": ticket.Subject,
			"hours":   ticket.HoursLogged.String(),
		}),
		ledgerPayload(map[string]string{
			"invoice": invoice.Number,
			"amount":  invoice.Amount.String(),
		}))

	publishEvents(ctx, s.bus, invoice)

	s.logger.Info("ticket closed with support invoice",
		zap.String("subject", ticket.Subject),
		zap.String("invoice_number", invoice.Number),
		zap.String("amount", invoice.Amount.String()))

	return &TicketCloseResult{Ticket: ticket, Invoice: invoice}, nil
}

// subscriptionCovers reports whether the linked subscription still pays
// for support work. A dangling link counts as uncovered.
func (s *SupportTicketService) subscriptionCovers(ctx context.Context, subscriptionID uuid.UUID) (bool, error) {
	if s.subscriptions == nil {
		return false, nil
	}
	sub, err := s.subscriptions.FindByID(ctx, subscriptionID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Status == billing.SubscriptionStatusActive, nil
}

package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/crm"
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/project"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
	"github.com/finflow/backend/internal/domain/support"
	"github.com/shopspring/decimal"
)

// In-memory fakes shared by the workflow service tests. They keep
// aggregates by pointer, so mutations made by a service are visible to
// assertions without a reload.

var errSaveFailed = errors.New("save failed")

type memSequencer struct {
	seq int64
	err error
}

func (s *memSequencer) NextSequence(ctx context.Context, prefix string, period time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.seq++
	return s.seq, nil
}

type fakeBus struct {
	events []shared.DomainEvent
}

func (b *fakeBus) Publish(ctx context.Context, event shared.DomainEvent) error {
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Subscribe(handler shared.EventHandler) {}

type fakeRenderer struct {
	rendered []string
	err      error
}

func (r *fakeRenderer) Render(ctx context.Context, inv *billing.Invoice) error {
	if r.err != nil {
		return r.err
	}
	r.rendered = append(r.rendered, inv.Number)
	return nil
}

type fakeExecRepo struct {
	entries []*automation.ExecutionEntry
}

func (r *fakeExecRepo) Append(ctx context.Context, entry *automation.ExecutionEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeExecRepo) ExistsInWindow(ctx context.Context, ruleName, entityID string, from, to time.Time) (bool, error) {
	for _, e := range r.entries {
		if e.RuleName == ruleName && e.EntityID == entityID &&
			!e.ExecutedAt.Before(from) && e.ExecutedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeExecRepo) List(ctx context.Context, filter shared.Filter) ([]*automation.ExecutionEntry, error) {
	return r.entries, nil
}

func (r *fakeExecRepo) Search(ctx context.Context, ruleName string, status automation.ExecutionStatus, filter shared.Filter) ([]*automation.ExecutionEntry, error) {
	var out []*automation.ExecutionEntry
	for _, e := range r.entries {
		if ruleName != "" && e.RuleName != ruleName {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeExecRepo) FindByID(ctx context.Context, id uuid.UUID) (*automation.ExecutionEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeExecRepo) byStatus(status automation.ExecutionStatus) []*automation.ExecutionEntry {
	var out []*automation.ExecutionEntry
	for _, e := range r.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func newTestLedger() (*automation.Ledger, *fakeExecRepo) {
	repo := &fakeExecRepo{}
	return automation.NewLedger(repo, zap.NewNop()), repo
}

type fakeQuoteRepo struct {
	quotes  []*billing.Quote
	saveErr error
}

func (r *fakeQuoteRepo) Save(ctx context.Context, quote *billing.Quote) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, q := range r.quotes {
		if q.ID == quote.ID {
			return nil
		}
	}
	r.quotes = append(r.quotes, quote)
	return nil
}

func (r *fakeQuoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quote, error) {
	for _, q := range r.quotes {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeQuoteRepo) FindByNumber(ctx context.Context, number string) (*billing.Quote, error) {
	for _, q := range r.quotes {
		if q.Number == number {
			return q, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeQuoteRepo) List(ctx context.Context, filter shared.Filter) ([]*billing.Quote, error) {
	return r.quotes, nil
}

type fakeInvoiceRepo struct {
	invoices    []*billing.Invoice
	saveErr     error
	saveErrOnce error
}

func (r *fakeInvoiceRepo) Save(ctx context.Context, invoice *billing.Invoice) error {
	if r.saveErrOnce != nil {
		err := r.saveErrOnce
		r.saveErrOnce = nil
		return err
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, inv := range r.invoices {
		if inv.ID == invoice.ID {
			return nil
		}
	}
	r.invoices = append(r.invoices, invoice)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeInvoiceRepo) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeInvoiceRepo) SearchByReference(ctx context.Context, reference string) ([]*billing.Invoice, error) {
	var out []*billing.Invoice
	for _, inv := range r.invoices {
		if inv.Status.IsOpen() && strings.Contains(reference, inv.Number) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindOpenByCurrency(ctx context.Context, currency valueobject.Currency) ([]*billing.Invoice, error) {
	var out []*billing.Invoice
	for _, inv := range r.invoices {
		if inv.Status.IsOpen() && inv.Currency == currency {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindOpenDueWithin(ctx context.Context, horizon time.Time) ([]*billing.Invoice, error) {
	var out []*billing.Invoice
	for _, inv := range r.invoices {
		if inv.Status.IsOpen() && !inv.DueDate.After(horizon) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) FindByProjectAndType(ctx context.Context, projectID uuid.UUID, invoiceType billing.InvoiceType) ([]*billing.Invoice, error) {
	var out []*billing.Invoice
	for _, inv := range r.invoices {
		if inv.ProjectID != nil && *inv.ProjectID == projectID && inv.Type == invoiceType {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error) {
	return r.invoices, nil
}

type fakeSubscriptionRepo struct {
	subs []*billing.Subscription
}

func (r *fakeSubscriptionRepo) Save(ctx context.Context, sub *billing.Subscription) error {
	for _, s := range r.subs {
		if s.ID == sub.ID {
			return nil
		}
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *fakeSubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
	for _, s := range r.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSubscriptionRepo) FindDue(ctx context.Context, now time.Time) ([]*billing.Subscription, error) {
	var out []*billing.Subscription
	for _, s := range r.subs {
		if s.Status == billing.SubscriptionStatusActive && !s.NextBillingAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) List(ctx context.Context, filter shared.Filter) ([]*billing.Subscription, error) {
	return r.subs, nil
}

type fakeCreditRepo struct {
	notes []*billing.CreditNote
}

func (r *fakeCreditRepo) Save(ctx context.Context, note *billing.CreditNote) error {
	for _, n := range r.notes {
		if n.ID == note.ID {
			return nil
		}
	}
	r.notes = append(r.notes, note)
	return nil
}

func (r *fakeCreditRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.CreditNote, error) {
	for _, n := range r.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCreditRepo) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]*billing.CreditNote, error) {
	var out []*billing.CreditNote
	for _, n := range r.notes {
		if n.InvoiceID == invoiceID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments []*finance.Payment
}

func (r *fakePaymentRepo) Save(ctx context.Context, payment *finance.Payment) error {
	for _, p := range r.payments {
		if p.ID == payment.ID {
			return nil
		}
	}
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	for _, p := range r.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakePaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*finance.Payment, error) {
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakePaymentRepo) SumDebitsSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.payments {
		if p.Direction == finance.PaymentDirectionDebit && !p.ReceivedAt.Before(since) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter shared.Filter) ([]*finance.Payment, error) {
	return r.payments, nil
}

type fakeProjectRepo struct {
	projects []*project.Project
}

func (r *fakeProjectRepo) Save(ctx context.Context, proj *project.Project) error {
	for _, p := range r.projects {
		if p.ID == proj.ID {
			return nil
		}
	}
	r.projects = append(r.projects, proj)
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	for _, p := range r.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProjectRepo) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*project.Project, error) {
	for _, p := range r.projects {
		if p.QuoteID != nil && *p.QuoteID == quoteID {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProjectRepo) List(ctx context.Context, filter shared.Filter) ([]*project.Project, error) {
	return r.projects, nil
}

type fakeDeliverableRepo struct {
	deliverables []*project.Deliverable
}

func (r *fakeDeliverableRepo) Save(ctx context.Context, d *project.Deliverable) error {
	for _, existing := range r.deliverables {
		if existing.ID == d.ID {
			return nil
		}
	}
	r.deliverables = append(r.deliverables, d)
	return nil
}

func (r *fakeDeliverableRepo) FindByID(ctx context.Context, id uuid.UUID) (*project.Deliverable, error) {
	for _, d := range r.deliverables {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDeliverableRepo) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*project.Deliverable, error) {
	var out []*project.Deliverable
	for _, d := range r.deliverables {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeTicketRepo struct {
	tickets []*support.Ticket
}

func (r *fakeTicketRepo) Save(ctx context.Context, ticket *support.Ticket) error {
	for _, t := range r.tickets {
		if t.ID == ticket.ID {
			return nil
		}
	}
	r.tickets = append(r.tickets, ticket)
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*support.Ticket, error) {
	for _, t := range r.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTicketRepo) List(ctx context.Context, filter shared.Filter) ([]*support.Ticket, error) {
	return r.tickets, nil
}

type fakeLeadRepo struct {
	leads []*crm.Lead
}

func (r *fakeLeadRepo) Save(ctx context.Context, lead *crm.Lead) error {
	for _, l := range r.leads {
		if l.ID == lead.ID {
			return nil
		}
	}
	r.leads = append(r.leads, lead)
	return nil
}

func (r *fakeLeadRepo) FindByID(ctx context.Context, id uuid.UUID) (*crm.Lead, error) {
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLeadRepo) List(ctx context.Context, filter shared.Filter) ([]*crm.Lead, error) {
	return r.leads, nil
}

type fakeSupplierRepo struct {
	invoices []*finance.SupplierInvoice
}

func (r *fakeSupplierRepo) Save(ctx context.Context, invoice *finance.SupplierInvoice) error {
	for _, si := range r.invoices {
		if si.ID == invoice.ID {
			return nil
		}
	}
	r.invoices = append(r.invoices, invoice)
	return nil
}

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*finance.SupplierInvoice, error) {
	for _, si := range r.invoices {
		if si.ID == id {
			return si, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSupplierRepo) FindApprovedScheduledWithin(ctx context.Context, horizon time.Time) ([]*finance.SupplierInvoice, error) {
	var out []*finance.SupplierInvoice
	for _, si := range r.invoices {
		if si.Status == finance.SupplierInvoiceStatusApproved &&
			si.PaymentScheduledDate != nil && !si.PaymentScheduledDate.After(horizon) {
			out = append(out, si)
		}
	}
	return out, nil
}

func (r *fakeSupplierRepo) List(ctx context.Context, filter shared.Filter) ([]*finance.SupplierInvoice, error) {
	return r.invoices, nil
}

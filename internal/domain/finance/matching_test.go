package finance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

// fakeInvoiceRepo is an in-memory invoice repository for matcher tests
type fakeInvoiceRepo struct {
	invoices []*billing.Invoice
}

func (r *fakeInvoiceRepo) Save(ctx context.Context, inv *billing.Invoice) error {
	r.invoices = append(r.invoices, inv)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			return inv, nil
		}
	}
	return nil, nil
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

func mustInvoice(t *testing.T, number, amount string) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(number, uuid.New(), billing.InvoiceTypeMilestone,
		decimal.RequireFromString(amount), decimal.Zero, valueobject.CurrencyCHF,
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return inv
}

func TestMatcherReferenceWins(t *testing.T) {
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{
		mustInvoice(t, "INV-202501-003", "1000"),
		mustInvoice(t, "INV-202501-004", "1000"),
	}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Reference: "Payment for INV-202501-003 thank you",
		Amount:    decimal.RequireFromString("1000"),
		Currency:  valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-202501-003", inv.Number)
}

func TestMatcherReferencePrefersAmountAmongCandidates(t *testing.T) {
	// both numbers appear in the reference; amount disambiguates
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{
		mustInvoice(t, "INV-202501-003", "1000"),
		mustInvoice(t, "INV-202501-030", "2500"),
	}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Reference: "INV-202501-003 INV-202501-030",
		Amount:    decimal.RequireFromString("2500"),
		Currency:  valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-202501-030", inv.Number)
}

func TestMatcherAmountFallback(t *testing.T) {
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{
		mustInvoice(t, "INV-202501-010", "742.50"),
		mustInvoice(t, "INV-202501-011", "1200"),
	}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Reference: "wire transfer",
		Amount:    decimal.RequireFromString("742.50"),
		Currency:  valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-202501-010", inv.Number)
}

func TestMatcherAmbiguousAmountReturnsNoMatch(t *testing.T) {
	// identical totals and a reference matching neither: no guess
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{
		mustInvoice(t, "INV-202501-010", "1000"),
		mustInvoice(t, "INV-202501-011", "1000"),
	}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Reference: "",
		Amount:    decimal.RequireFromString("1000"),
		Currency:  valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestMatcherAmountTolerance(t *testing.T) {
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{
		mustInvoice(t, "INV-202501-010", "1000"),
	}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Amount:   decimal.RequireFromString("1000.01"),
		Currency: valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	require.NotNil(t, inv)

	inv, err = matcher.Match(context.Background(), MatchCandidate{
		Amount:   decimal.RequireFromString("1000.02"),
		Currency: valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	assert.Nil(t, inv, "beyond the fixed tolerance the engine never guesses")
}

func TestMatcherSkipsClosedInvoices(t *testing.T) {
	paid := mustInvoice(t, "INV-202501-010", "1000")
	require.NoError(t, paid.MarkPaid(time.Now()))
	repo := &fakeInvoiceRepo{invoices: []*billing.Invoice{paid}}
	matcher := NewPaymentMatcher(repo)

	inv, err := matcher.Match(context.Background(), MatchCandidate{
		Reference: "INV-202501-010",
		Amount:    decimal.RequireFromString("1000"),
		Currency:  valueobject.CurrencyCHF,
	})
	require.NoError(t, err)
	assert.Nil(t, inv)
}

package finance

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/domain/shared/strategy"
	"github.com/finflow/backend/internal/domain/shared/valueobject"
)

// MatchTolerance is the maximum absolute difference between a payment
// amount and an invoice total for the two to be considered equal.
var MatchTolerance = decimal.NewFromFloat(0.01)

// MatchCandidate is the payment signal handed to the strategy chain
type MatchCandidate struct {
	Reference string
	Amount    decimal.Decimal
	Currency  valueobject.Currency
}

// MatchStrategy resolves a payment candidate to an open invoice. A nil
// invoice with a nil error means the strategy has no opinion and the chain
// moves on.
type MatchStrategy interface {
	strategy.Strategy
	Match(ctx context.Context, candidate MatchCandidate) (*billing.Invoice, error)
}

// amountMatches reports whether the invoice total equals the payment
// amount within the fixed tolerance.
func amountMatches(inv *billing.Invoice, amount decimal.Decimal) bool {
	return inv.Total.Sub(amount).Abs().LessThanOrEqual(MatchTolerance)
}

// ReferenceMatchStrategy matches by exact invoice-number occurrence in the
// payment reference. When several open invoice numbers appear in the text,
// the one whose total matches the payment amount wins.
type ReferenceMatchStrategy struct {
	strategy.BaseStrategy
	invoices billing.InvoiceRepository
}

// NewReferenceMatchStrategy creates a new ReferenceMatchStrategy
func NewReferenceMatchStrategy(invoices billing.InvoiceRepository) *ReferenceMatchStrategy {
	return &ReferenceMatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"reference_match",
			strategy.StrategyTypeMatching,
			"Matches the payment reference text against open invoice numbers",
		),
		invoices: invoices,
	}
}

// Match implements MatchStrategy
func (s *ReferenceMatchStrategy) Match(ctx context.Context, candidate MatchCandidate) (*billing.Invoice, error) {
	if strings.TrimSpace(candidate.Reference) == "" {
		return nil, nil
	}
	candidates, err := s.invoices.SearchByReference(ctx, candidate.Reference)
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	for _, inv := range candidates {
		if amountMatches(inv, candidate.Amount) {
			return inv, nil
		}
	}
	return nil, nil
}

// TokenMatchStrategy extracts an invoice-number-like token from the
// reference and looks it up directly.
type TokenMatchStrategy struct {
	strategy.BaseStrategy
	invoices billing.InvoiceRepository
}

// NewTokenMatchStrategy creates a new TokenMatchStrategy
func NewTokenMatchStrategy(invoices billing.InvoiceRepository) *TokenMatchStrategy {
	return &TokenMatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"token_match",
			strategy.StrategyTypeMatching,
			"Extracts a document-number token from the reference and looks it up",
		),
		invoices: invoices,
	}
}

// Match implements MatchStrategy
func (s *TokenMatchStrategy) Match(ctx context.Context, candidate MatchCandidate) (*billing.Invoice, error) {
	token := billing.ExtractDocumentNumber(candidate.Reference)
	if token == "" {
		return nil, nil
	}
	inv, err := s.invoices.FindByNumber(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if inv == nil || !inv.Status.IsOpen() {
		return nil, nil
	}
	return inv, nil
}

// AmountMatchStrategy is the fallback: among open invoices in the payment
// currency, exactly one with a matching total is a hit. Two or more
// matching totals are ambiguous and the strategy stays silent; a wrong
// automatic match costs more than a manual reconciliation.
type AmountMatchStrategy struct {
	strategy.BaseStrategy
	invoices billing.InvoiceRepository
}

// NewAmountMatchStrategy creates a new AmountMatchStrategy
func NewAmountMatchStrategy(invoices billing.InvoiceRepository) *AmountMatchStrategy {
	return &AmountMatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"amount_match",
			strategy.StrategyTypeMatching,
			"Matches by unique amount among open invoices in the payment currency",
		),
		invoices: invoices,
	}
}

// Match implements MatchStrategy
func (s *AmountMatchStrategy) Match(ctx context.Context, candidate MatchCandidate) (*billing.Invoice, error) {
	open, err := s.invoices.FindOpenByCurrency(ctx, candidate.Currency)
	if err != nil {
		return nil, err
	}
	var hit *billing.Invoice
	for _, inv := range open {
		if !amountMatches(inv, candidate.Amount) {
			continue
		}
		if hit != nil {
			return nil, nil
		}
		hit = inv
	}
	return hit, nil
}

// PaymentMatcher runs the strategy chain in priority order, first hit wins
type PaymentMatcher struct {
	strategies []MatchStrategy
}

// NewPaymentMatcher creates the default matcher chain over an invoice
// repository: reference text, then extracted token, then unique amount.
func NewPaymentMatcher(invoices billing.InvoiceRepository) *PaymentMatcher {
	return &PaymentMatcher{
		strategies: []MatchStrategy{
			NewReferenceMatchStrategy(invoices),
			NewTokenMatchStrategy(invoices),
			NewAmountMatchStrategy(invoices),
		},
	}
}

// Match resolves a payment to an invoice or returns nil when no strategy
// produced an unambiguous hit.
func (m *PaymentMatcher) Match(ctx context.Context, candidate MatchCandidate) (*billing.Invoice, error) {
	for _, s := range m.strategies {
		inv, err := s.Match(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if inv != nil {
			return inv, nil
		}
	}
	return nil, nil
}

package billing

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/finflow/backend/internal/domain/shared"
)

// Document number prefixes per document kind
const (
	InvoiceNumberPrefix = "INV"
	CreditNumberPrefix  = "CRN"
	QuoteNumberPrefix   = "QUO"
)

// documentNumberPattern matches "PREFIX-YYYYMM-NNN" style document numbers.
// Used by the payment matcher to extract invoice-number-like tokens from
// free-form payment references.
var documentNumberPattern = regexp.MustCompile(`[A-Z]{2,4}-\d{6}-\d{3,}`)

// FormatDocumentNumber builds a sequential document number from a prefix,
// a billing period and a counter, e.g. "INV-202501-003".
func FormatDocumentNumber(prefix string, period time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, period.Format("200601"), seq)
}

// ExtractDocumentNumber returns the first document-number-like token found
// in the given text, or "" when none is present.
func ExtractDocumentNumber(text string) string {
	return documentNumberPattern.FindString(text)
}

// NumberSequencer returns the next counter value for a prefix within a
// billing period. Implementations are count-based lookups against the
// record store; the query is not atomic, which is why scheduled billing
// processes items sequentially.
type NumberSequencer interface {
	NextSequence(ctx context.Context, prefix string, period time.Time) (int64, error)
}

// NumberGenerator produces sequential document numbers
type NumberGenerator struct {
	sequencer NumberSequencer
}

// NewNumberGenerator creates a new NumberGenerator
func NewNumberGenerator(sequencer NumberSequencer) *NumberGenerator {
	return &NumberGenerator{sequencer: sequencer}
}

// Next generates the next document number for the prefix in the period
// containing the given time.
func (g *NumberGenerator) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", shared.NewDomainError("INVALID_PREFIX", "Document number prefix cannot be empty")
	}
	seq, err := g.sequencer.NextSequence(ctx, prefix, at)
	if err != nil {
		return "", fmt.Errorf("next sequence for %s: %w", prefix, err)
	}
	return FormatDocumentNumber(prefix, at, seq), nil
}

package crm

import (
	"context"

	"github.com/finflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadStatus represents the qualification status of a sales lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusRejected  LeadStatus = "rejected"
)

// LeadTier is the classifier's priority band
type LeadTier string

const (
	LeadTierHot  LeadTier = "hot"
	LeadTierWarm LeadTier = "warm"
	LeadTierCold LeadTier = "cold"
)

// IsValid checks if the tier is a valid LeadTier
func (t LeadTier) IsValid() bool {
	return t == LeadTierHot || t == LeadTierWarm || t == LeadTierCold
}

// Classification is the structured result of lead qualification
type Classification struct {
	Tier      LeadTier `json:"tier"`
	Score     int      `json:"score"`
	Rationale string   `json:"rationale"`
}

// Lead is an inbound sales contact awaiting qualification
type Lead struct {
	shared.BaseAggregateRoot
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	CompanyName string     `json:"company_name"`
	Message     string     `json:"message"`
	Status      LeadStatus `json:"status"`
	Tier        *LeadTier  `json:"tier,omitempty"`
	Score       *int       `json:"score,omitempty"`
}

// NewLead records an inbound lead
func NewLead(name, email, companyName, message string) (*Lead, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Lead name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Lead email cannot be empty")
	}
	return &Lead{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		CompanyName:       companyName,
		Message:           message,
		Status:            LeadStatusNew,
	}, nil
}

// ApplyClassification stores the classifier's verdict
func (l *Lead) ApplyClassification(c Classification) error {
	if !c.Tier.IsValid() {
		return shared.NewDomainError("INVALID_TIER", "Unknown lead tier: "+string(c.Tier))
	}
	tier := c.Tier
	score := c.Score
	l.Tier = &tier
	l.Score = &score
	if tier == LeadTierCold {
		l.Status = LeadStatusRejected
	} else {
		l.Status = LeadStatusQualified
	}
	return nil
}

// LeadRepository persists leads
type LeadRepository interface {
	Save(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, filter shared.Filter) ([]*Lead, error)
}

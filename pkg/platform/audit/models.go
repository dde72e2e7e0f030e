package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers writes that change what the registry
	// attests: new issuers, credentials and portfolio versions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected requests: bad proofs, signer
	// mismatches, attempts to reclaim an occupied slot.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as overwrites.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic after a write commits (or is
// refused). Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Signer is the base58 identity that signed the request, if any.
	Signer string `json:"signer,omitempty"`
	// Subject is the base58 address of the affected record.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventPortfolioPublished  AuditEvent = "portfolio_published"
	EventPortfolioUpdated    AuditEvent = "portfolio_updated"
	EventIssuerRegistered    AuditEvent = "issuer_registered"
	EventCredentialIssued    AuditEvent = "credential_issued"
	EventAuthorizationDenied AuditEvent = "authorization_denied"
	EventSlotConflict        AuditEvent = "slot_conflict"
	EventProofRejected       AuditEvent = "proof_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPortfolioPublished: CategoryCompliance,
	EventIssuerRegistered:   CategoryCompliance,
	EventCredentialIssued:   CategoryCompliance,

	EventAuthorizationDenied: CategorySecurity,
	EventSlotConflict:        CategorySecurity,
	EventProofRejected:       CategorySecurity,

	EventPortfolioUpdated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can be queried back.
type Lister interface {
	ListBySigner(ctx context.Context, signer string) ([]Event, error)
}

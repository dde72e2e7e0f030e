// Package service composes derivation, authorization and storage into the
// registry's operations.
//
// Every mutation follows the same shape: validate input, derive the target
// address, authorize the signer, apply the slot policy (create-once or
// guarded upsert), then report. Nothing is written on any error path and
// nothing is retried here.
//
// The signer argument is the identity the caller claims to act as. The
// identity actually proven for the request is read from the context
// (requestcontext.Signer), where proof verification put it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/registry/address"
	"folio/internal/registry/metrics"
	"folio/internal/registry/models"
	"folio/pkg/attrs"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	audit "folio/pkg/platform/audit"
	"folio/pkg/platform/sentinel"
	"folio/pkg/requestcontext"
)

type Store interface {
	PutPortfolio(ctx context.Context, addr domain.Address, rec *models.PortfolioRecord) (bool, error)
	CreateIssuer(ctx context.Context, addr domain.Address, iss *models.Issuer) error
	CreateCredential(ctx context.Context, addr domain.Address, cred *models.Credential) error
	FindPortfolio(ctx context.Context, addr domain.Address) (*models.PortfolioRecord, error)
	FindIssuer(ctx context.Context, addr domain.Address) (*models.Issuer, error)
	FindCredential(ctx context.Context, addr domain.Address) (*models.Credential, error)
	FindCredentials(ctx context.Context, addrs []domain.Address) (map[domain.Address]*models.Credential, error)
}

type Deriver interface {
	Portfolio(authority domain.Identity, version uint64) (domain.Address, uint8, error)
	Issuer(authority domain.Identity) (domain.Address, uint8, error)
	Credential(issuer domain.Address, student domain.Identity, reference domain.Digest) (domain.Address, uint8, error)
	VerifyIssuer(addr domain.Address, authority domain.Identity, bump uint8) bool
	VerifyCredential(addr, issuer domain.Address, student domain.Identity, reference domain.Digest, bump uint8) bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	opPublishPortfolio = "publish_portfolio"
	opRegisterIssuer   = "register_issuer"
	opIssueCredential  = "issue_credential"
)

var tracer = otel.Tracer("folio/internal/registry/service")

// Service orchestrates registry writes and fixed-key reads.
type Service struct {
	store          Store
	deriver        Deriver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	clock          func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides time.Now. A request-scoped time on the context still
// takes precedence.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service.
func New(store Store, deriver Deriver, opts ...Option) *Service {
	s := &Service{store: store, deriver: deriver, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	if t, ok := requestcontext.RequestTime(ctx); ok {
		return t
	}
	return s.clock()
}

// begin opens a span and returns the func that closes it with the
// operation's outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...trace.SpanStartOption) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "registry."+op, attrs...)
	return ctx, func(errp *error) {
		s.metrics.ObserveLatency(op, time.Since(start))
		if err := *errp; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			s.metrics.IncrementRejection(op, string(dErrors.CodeOf(err)))
		}
		span.End()
	}
}

// derivationError maps address search failures. Exhaustion is fatal and
// reported as such; anything else means the seeds were malformed.
func derivationError(err error) error {
	if errors.Is(err, address.ErrDerivationExhausted) {
		return dErrors.Wrap(err, dErrors.CodeDerivationExhausted, "no valid address exists for these seeds")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive address")
}

// lookupError maps read failures. A slot holding another family is as good
// as absent to the caller.
func lookupError(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage temporarily unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

// storeError maps write failures other than an occupied slot.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage temporarily unavailable")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent write to "+what+", retry")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store "+what)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	// Audit is best effort; the write has already committed or been refused.
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Signer:    attrs.ExtractString(attributes, "signer"),
		Subject:   attrs.ExtractString(attributes, "address"),
		Decision:  attrs.ExtractString(attributes, "decision"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: s.now(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", string(event), "error", err)
	}
}

// logDenied records a refused write. Only authorization and slot conflicts
// are security relevant; validation noise is not audited.
func (s *Service) logDenied(ctx context.Context, op string, signer domain.Identity, addr domain.Address, err error) {
	var event audit.AuditEvent
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeUnauthorized:
		event = audit.EventAuthorizationDenied
	case dErrors.CodeConflict:
		event = audit.EventSlotConflict
	default:
		return
	}
	attributes := []any{"signer", signer.String(), "decision", "denied", "reason", dErrors.Message(err), "operation", op}
	if !addr.IsZero() {
		attributes = append(attributes, "address", addr.String())
	}
	s.logAudit(ctx, event, attributes...)
}

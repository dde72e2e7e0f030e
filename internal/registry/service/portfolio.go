package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/registry/auth"
	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	audit "folio/pkg/platform/audit"
	"folio/pkg/requestcontext"
)

// PublishPortfolio pins hash as version of signer's portfolio. Publishing
// the same (signer, version) again overwrites the hash and timestamp at the
// same address, so identical retries are harmless.
func (s *Service) PublishPortfolio(ctx context.Context, signer domain.Identity, version uint64, hash domain.Digest) (_ *models.PortfolioReceipt, err error) {
	ctx, end := s.begin(ctx, opPublishPortfolio, trace.WithAttributes(
		attribute.String("registry.signer", signer.String()),
		attribute.String("registry.version", strconv.FormatUint(version, 10)),
	))
	defer end(&err)

	addr, bump, err := s.deriver.Portfolio(signer, version)
	if err != nil {
		return nil, derivationError(err)
	}
	s.metrics.ObserveBump(bump)

	if err := auth.AuthorizeSelf(signer, requestcontext.Signer(ctx)); err != nil {
		s.logDenied(ctx, opPublishPortfolio, signer, addr, err)
		return nil, err
	}

	rec := models.NewPortfolioRecord(signer, version, hash, s.now(ctx))
	created, err := s.store.PutPortfolio(ctx, addr, rec)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, storeError(err, "portfolio")
	}

	event, outcome := audit.EventPortfolioPublished, "created"
	if !created {
		event, outcome = audit.EventPortfolioUpdated, "updated"
	}
	s.metrics.IncrementWrite("portfolio", outcome)
	s.logAudit(ctx, event,
		"signer", signer.String(),
		"address", addr.String(),
		"decision", outcome,
		"version", version,
		"hash", hash.String(),
	)

	return &models.PortfolioReceipt{Address: addr, Bump: bump, Created: created, Record: rec}, nil
}

// GetPortfolio reads the record for (authority, version).
func (s *Service) GetPortfolio(ctx context.Context, authority domain.Identity, version uint64) (*models.PortfolioReceipt, error) {
	addr, bump, err := s.deriver.Portfolio(authority, version)
	if err != nil {
		return nil, derivationError(err)
	}
	rec, err := s.store.FindPortfolio(ctx, addr)
	if err != nil {
		return nil, lookupError(err, "portfolio")
	}
	return &models.PortfolioReceipt{Address: addr, Bump: bump, Record: rec}, nil
}

package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"folio/internal/registry/auth"
	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	audit "folio/pkg/platform/audit"
	"folio/pkg/platform/sentinel"
	"folio/pkg/requestcontext"
)

// RegisterIssuer makes signer an issuer named name. Each authority gets
// exactly one issuer; a second registration fails with CodeConflict and
// leaves the first untouched.
func (s *Service) RegisterIssuer(ctx context.Context, signer domain.Identity, name string) (_ *models.IssuerReceipt, err error) {
	ctx, end := s.begin(ctx, opRegisterIssuer, trace.WithAttributes(
		attribute.String("registry.signer", signer.String()),
	))
	defer end(&err)

	// Checked before derivation so an oversized name never reaches storage.
	if err := models.ValidateIssuerName(name); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}

	addr, bump, err := s.deriver.Issuer(signer)
	if err != nil {
		return nil, derivationError(err)
	}
	s.metrics.ObserveBump(bump)

	if err := auth.AuthorizeSelf(signer, requestcontext.Signer(ctx)); err != nil {
		s.logDenied(ctx, opRegisterIssuer, signer, addr, err)
		return nil, err
	}

	iss, err := models.NewIssuer(signer, name, bump)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}
	if err := s.store.CreateIssuer(ctx, addr, iss); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			err = dErrors.New(dErrors.CodeConflict, "issuer already registered for this authority")
			s.logDenied(ctx, opRegisterIssuer, signer, addr, err)
			return nil, err
		}
		return nil, storeError(err, "issuer")
	}

	s.metrics.IncrementWrite("issuer", "created")
	s.logAudit(ctx, audit.EventIssuerRegistered,
		"signer", signer.String(),
		"address", addr.String(),
		"decision", "created",
		"name", name,
	)

	return &models.IssuerReceipt{Address: addr, Issuer: iss}, nil
}

// GetIssuer reads the issuer stored at addr.
func (s *Service) GetIssuer(ctx context.Context, addr domain.Address) (*models.IssuerReceipt, error) {
	iss, err := s.store.FindIssuer(ctx, addr)
	if err != nil {
		return nil, lookupError(err, "issuer")
	}
	if !s.deriver.VerifyIssuer(addr, iss.Authority, iss.Bump) {
		return nil, dErrors.New(dErrors.CodeInternal, "issuer slot does not match its address")
	}
	return &models.IssuerReceipt{Address: addr, Issuer: iss}, nil
}

// GetIssuerByAuthority finds the issuer registered by authority.
func (s *Service) GetIssuerByAuthority(ctx context.Context, authority domain.Identity) (*models.IssuerReceipt, error) {
	addr, _, err := s.deriver.Issuer(authority)
	if err != nil {
		return nil, derivationError(err)
	}
	return s.GetIssuer(ctx, addr)
}

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

// MaxBatchReferences bounds FindCredentials.
const MaxBatchReferences = 100

// IssueCredential records that the issuer at issuerAddr attests reference
// for student. Only the issuer's authority may issue, and each
// (issuer, student, reference) triple is issued once.
func (s *Service) IssueCredential(ctx context.Context, signer domain.Identity, issuerAddr domain.Address, student domain.Identity, reference domain.Digest) (_ *models.CredentialReceipt, err error) {
	ctx, end := s.begin(ctx, opIssueCredential, trace.WithAttributes(
		attribute.String("registry.signer", signer.String()),
		attribute.String("registry.issuer", issuerAddr.String()),
	))
	defer end(&err)

	if err := auth.AuthorizeSelf(signer, requestcontext.Signer(ctx)); err != nil {
		s.logDenied(ctx, opIssueCredential, signer, issuerAddr, err)
		return nil, err
	}

	iss, err := s.store.FindIssuer(ctx, issuerAddr)
	if err != nil {
		return nil, lookupError(err, "issuer")
	}
	if err := auth.AuthorizeIssuer(signer, iss); err != nil {
		s.logDenied(ctx, opIssueCredential, signer, issuerAddr, err)
		return nil, err
	}

	addr, bump, err := s.deriver.Credential(issuerAddr, student, reference)
	if err != nil {
		return nil, derivationError(err)
	}
	s.metrics.ObserveBump(bump)

	cred := models.NewCredential(issuerAddr, student, reference, s.now(ctx), bump)
	if err := s.store.CreateCredential(ctx, addr, cred); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			err = dErrors.New(dErrors.CodeConflict, "credential already issued")
			s.logDenied(ctx, opIssueCredential, signer, addr, err)
			return nil, err
		}
		return nil, storeError(err, "credential")
	}

	s.metrics.IncrementWrite("credential", "created")
	s.logAudit(ctx, audit.EventCredentialIssued,
		"signer", signer.String(),
		"address", addr.String(),
		"decision", "created",
		"issuer", issuerAddr.String(),
		"student", student.String(),
	)

	return &models.CredentialReceipt{Address: addr, Credential: cred}, nil
}

// GetCredential reads the credential stored at addr.
func (s *Service) GetCredential(ctx context.Context, addr domain.Address) (*models.CredentialReceipt, error) {
	cred, err := s.store.FindCredential(ctx, addr)
	if err != nil {
		return nil, lookupError(err, "credential")
	}
	if !s.deriver.VerifyCredential(addr, cred.Issuer, cred.Student, cred.Reference, cred.Bump) {
		return nil, dErrors.New(dErrors.CodeInternal, "credential slot does not match its address")
	}
	return &models.CredentialReceipt{Address: addr, Credential: cred}, nil
}

// FindCredential looks up a credential by its key fields.
func (s *Service) FindCredential(ctx context.Context, issuerAddr domain.Address, student domain.Identity, reference domain.Digest) (*models.CredentialReceipt, error) {
	addr, _, err := s.deriver.Credential(issuerAddr, student, reference)
	if err != nil {
		return nil, derivationError(err)
	}
	return s.GetCredential(ctx, addr)
}

// FindCredentials returns the credentials issuerAddr issued to student for
// any of references, in reference order. Missing ones and repeats are
// skipped.
func (s *Service) FindCredentials(ctx context.Context, issuerAddr domain.Address, student domain.Identity, references []domain.Digest) ([]*models.CredentialReceipt, error) {
	if len(references) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one reference is required")
	}
	if len(references) > MaxBatchReferences {
		return nil, dErrors.New(dErrors.CodeValidation, "too many references")
	}
	addrs := make([]domain.Address, 0, len(references))
	seen := make(map[domain.Address]struct{}, len(references))
	for _, ref := range references {
		addr, _, err := s.deriver.Credential(issuerAddr, student, ref)
		if err != nil {
			return nil, derivationError(err)
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	found, err := s.store.FindCredentials(ctx, addrs)
	if err != nil {
		return nil, lookupError(err, "credentials")
	}
	out := make([]*models.CredentialReceipt, 0, len(found))
	for _, addr := range addrs {
		if cred, ok := found[addr]; ok {
			out = append(out, &models.CredentialReceipt{Address: addr, Credential: cred})
		}
	}
	return out, nil
}

// Package auth decides whether a request may mutate a record.
//
// The gate is read-only: it compares identities and never touches storage.
// Services call it after address derivation and before any write so a
// rejected request leaves no trace.
package auth

import (
	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
)

// AuthorizeSelf covers creations where the signer becomes the authority of
// record (issuers, portfolios).
func AuthorizeSelf(claimed, signer domain.Identity) error {
	if signer.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing identity proof")
	}
	if claimed != signer {
		return dErrors.New(dErrors.CodeForbidden, "signer is not the claimed authority")
	}
	return nil
}

// AuthorizeIssuer allows only the issuer's registered authority to mint
// credentials under it.
func AuthorizeIssuer(signer domain.Identity, issuer *models.Issuer) error {
	if signer.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing identity proof")
	}
	if issuer == nil || issuer.Authority != signer {
		return dErrors.New(dErrors.CodeForbidden, "signer is not the issuer authority")
	}
	return nil
}

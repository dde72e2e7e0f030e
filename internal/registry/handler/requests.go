package handler

import (
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
)

// Every mutating request may name the identity it acts as. When omitted,
// the proven signer is assumed.

type PublishPortfolioRequest struct {
	Signer  string `json:"signer,omitempty"`
	Version uint64 `json:"version"`
	// Hash is 64 hex characters or a CIDv1 with a sha2-256 multihash.
	Hash string `json:"hash"`
}

type RegisterIssuerRequest struct {
	Signer string `json:"signer,omitempty"`
	Name   string `json:"name"`
}

type IssueCredentialRequest struct {
	Signer    string `json:"signer,omitempty"`
	Issuer    string `json:"issuer"`
	Student   string `json:"student"`
	Reference string `json:"reference"`
}

func claimedSigner(raw string, proven domain.Identity) (domain.Identity, error) {
	if raw == "" {
		return proven, nil
	}
	return domain.ParseIdentity(raw)
}

func required(field, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return nil
}

func (r *PublishPortfolioRequest) Parse(proven domain.Identity) (domain.Identity, domain.Digest, error) {
	signer, err := claimedSigner(r.Signer, proven)
	if err != nil {
		return domain.Identity{}, domain.Digest{}, err
	}
	if err := required("hash", r.Hash); err != nil {
		return domain.Identity{}, domain.Digest{}, err
	}
	hash, err := domain.ParseDigest(r.Hash)
	if err != nil {
		return domain.Identity{}, domain.Digest{}, err
	}
	return signer, hash, nil
}

func (r *RegisterIssuerRequest) Parse(proven domain.Identity) (domain.Identity, error) {
	return claimedSigner(r.Signer, proven)
}

type credentialKey struct {
	signer    domain.Identity
	issuer    domain.Address
	student   domain.Identity
	reference domain.Digest
}

func (r *IssueCredentialRequest) Parse(proven domain.Identity) (credentialKey, error) {
	var k credentialKey
	var err error
	if k.signer, err = claimedSigner(r.Signer, proven); err != nil {
		return k, err
	}
	for _, f := range [][2]string{{"issuer", r.Issuer}, {"student", r.Student}, {"reference", r.Reference}} {
		if err := required(f[0], f[1]); err != nil {
			return k, err
		}
	}
	if k.issuer, err = domain.ParseAddress(r.Issuer); err != nil {
		return k, err
	}
	if k.student, err = domain.ParseIdentity(r.Student); err != nil {
		return k, err
	}
	if k.reference, err = domain.ParseDigest(r.Reference); err != nil {
		return k, err
	}
	return k, nil
}

package models

import (
	"time"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
)

// MaxIssuerNameLen is the byte budget reserved for an issuer name.
const MaxIssuerNameLen = 64

// PortfolioRecord pins one version of an owner's portfolio document.
//
// Invariants:
//   - Authority is the identity that signed the write creating the slot and
//     never changes on later overwrites of the same slot
//   - Version is caller-chosen; the registry does not require it to grow
//   - UpdatedAt has one-second resolution
type PortfolioRecord struct {
	Authority domain.Identity `json:"authority"`
	Version   uint64          `json:"version"`
	Hash      domain.Digest   `json:"hash"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPortfolioRecord stamps a portfolio write at now.
func NewPortfolioRecord(authority domain.Identity, version uint64, hash domain.Digest, now time.Time) *PortfolioRecord {
	return &PortfolioRecord{
		Authority: authority,
		Version:   version,
		Hash:      hash,
		UpdatedAt: truncate(now),
	}
}

// CanOverwrite checks that next targets the same (authority, version) key
// as the stored record.
func (r *PortfolioRecord) CanOverwrite(next *PortfolioRecord) error {
	if r.Authority != next.Authority {
		return dErrors.New(dErrors.CodeInvariantViolation, "portfolio authority cannot change")
	}
	if r.Version != next.Version {
		return dErrors.New(dErrors.CodeInvariantViolation, "portfolio version cannot change")
	}
	return nil
}

// Issuer is an authority registered to mint credentials. Immutable once
// created; exactly one per authority.
type Issuer struct {
	Authority domain.Identity `json:"authority"`
	Name      string          `json:"name"`
	Bump      uint8           `json:"bump"`
}

// ValidateIssuerName enforces the fixed name budget.
func ValidateIssuerName(name string) error {
	if len(name) > MaxIssuerNameLen {
		return dErrors.New(dErrors.CodeInvariantViolation, "issuer name exceeds 64 bytes")
	}
	return nil
}

func NewIssuer(authority domain.Identity, name string, bump uint8) (*Issuer, error) {
	if err := ValidateIssuerName(name); err != nil {
		return nil, err
	}
	return &Issuer{Authority: authority, Name: name, Bump: bump}, nil
}

// Credential attests something about Student on behalf of the issuer at
// Issuer. The (Issuer, Student, Reference) triple is globally unique.
type Credential struct {
	Issuer    domain.Address  `json:"issuer"`
	Student   domain.Identity `json:"student"`
	Reference domain.Digest   `json:"reference"`
	IssuedAt  time.Time       `json:"issued_at"`
	Bump      uint8           `json:"bump"`
}

func NewCredential(issuer domain.Address, student domain.Identity, reference domain.Digest, now time.Time, bump uint8) *Credential {
	return &Credential{
		Issuer:    issuer,
		Student:   student,
		Reference: reference,
		IssuedAt:  truncate(now),
		Bump:      bump,
	}
}

// Stored timestamps are unix seconds.
func truncate(t time.Time) time.Time {
	return time.Unix(t.Unix(), 0).UTC()
}

// PortfolioReceipt describes a completed publish.
type PortfolioReceipt struct {
	Address domain.Address
	Bump    uint8
	Created bool
	Record  *PortfolioRecord
}

// IssuerReceipt describes a completed issuer registration.
type IssuerReceipt struct {
	Address domain.Address
	Issuer  *Issuer
}

// CredentialReceipt describes a completed issuance.
type CredentialReceipt struct {
	Address    domain.Address
	Credential *Credential
}

package address

import (
	"crypto/sha256"
	"encoding/binary"

	"folio/pkg/domain"
)

// Kind tags are the first seed of every derivation so families never share
// an address even when their key fields coincide.
type Kind string

const (
	KindPortfolio  Kind = "portfolio"
	KindIssuer     Kind = "issuer"
	KindCredential Kind = "credential"
)

// DefaultProgram namespaces derivations when no program id is configured.
var DefaultProgram = domain.Address(sha256.Sum256([]byte("folio.registry.v1")))

// PortfolioSeeds orders (kind, authority, version) with version as u64 LE.
func PortfolioSeeds(authority domain.Identity, version uint64) [][]byte {
	v := make([]byte, 8)
	binary.LittleEndian.PutUint64(v, version)
	return [][]byte{[]byte(KindPortfolio), authority.Bytes(), v}
}

// IssuerSeeds orders (kind, authority).
func IssuerSeeds(authority domain.Identity) [][]byte {
	return [][]byte{[]byte(KindIssuer), authority.Bytes()}
}

// CredentialSeeds orders (kind, issuer address, student, reference).
func CredentialSeeds(issuer domain.Address, student domain.Identity, reference domain.Digest) [][]byte {
	return [][]byte{[]byte(KindCredential), issuer.Bytes(), student.Bytes(), reference.Bytes()}
}

// Deriver binds derivations to one program id.
type Deriver struct {
	program domain.Address
}

// NewDeriver returns a Deriver for program. A zero program uses DefaultProgram.
func NewDeriver(program domain.Address) *Deriver {
	if program.IsZero() {
		program = DefaultProgram
	}
	return &Deriver{program: program}
}

// Program returns the namespace this deriver hashes into every address.
func (d *Deriver) Program() domain.Address {
	return d.program
}

func (d *Deriver) Portfolio(authority domain.Identity, version uint64) (domain.Address, uint8, error) {
	return Derive(d.program, PortfolioSeeds(authority, version)...)
}

func (d *Deriver) Issuer(authority domain.Identity) (domain.Address, uint8, error) {
	return Derive(d.program, IssuerSeeds(authority)...)
}

func (d *Deriver) Credential(issuer domain.Address, student domain.Identity, reference domain.Digest) (domain.Address, uint8, error) {
	return Derive(d.program, CredentialSeeds(issuer, student, reference)...)
}

// VerifyIssuer checks that addr is the address issuer records at bump for
// authority.
func (d *Deriver) VerifyIssuer(addr domain.Address, authority domain.Identity, bump uint8) bool {
	got, err := CreateWithBump(d.program, bump, IssuerSeeds(authority)...)
	return err == nil && got == addr
}

// VerifyCredential checks a stored credential's address against its fields.
func (d *Deriver) VerifyCredential(addr, issuer domain.Address, student domain.Identity, reference domain.Digest, bump uint8) bool {
	got, err := CreateWithBump(d.program, bump, CredentialSeeds(issuer, student, reference)...)
	return err == nil && got == addr
}

package domain

import (
	"github.com/mr-tron/base58"

	dErrors "folio/pkg/domain-errors"
)

// KeySize is the width of identities and derived addresses.
const KeySize = 32

// Identity is an Ed25519 public key that signs requests and owns records.
// Invariant: never all zeroes when produced by ParseIdentity.
type Identity [KeySize]byte

// Address locates a record in the slot store. Addresses are derived, never
// chosen, so they are typed separately from identities.
type Address [KeySize]byte

// ParseIdentity decodes a base58 identity at a trust boundary.
func ParseIdentity(s string) (Identity, error) {
	b, err := decodeKey(s, "identity")
	if err != nil {
		return Identity{}, err
	}
	return Identity(b), nil
}

// ParseAddress decodes a base58 address at a trust boundary.
func ParseAddress(s string) (Address, error) {
	b, err := decodeKey(s, "address")
	if err != nil {
		return Address{}, err
	}
	return Address(b), nil
}

func decodeKey(s, what string) ([KeySize]byte, error) {
	var out [KeySize]byte
	if s == "" {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	// A 32-byte key never needs more than 44 base58 characters.
	if len(s) > 44 {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+" encoding")
	}
	if len(raw) != KeySize {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" must decode to 32 bytes")
	}
	copy(out[:], raw)
	if out == ([KeySize]byte{}) {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be zero")
	}
	return out, nil
}

func (i Identity) String() string { return base58.Encode(i[:]) }
func (i Identity) IsZero() bool   { return i == Identity{} }
func (i Identity) Bytes() []byte  { return i[:] }

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (a Address) String() string { return base58.Encode(a[:]) }
func (a Address) IsZero() bool   { return a == Address{} }
func (a Address) Bytes() []byte  { return a[:] }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"folio/pkg/platform/sentinel"
)

// Family names a record schema. The stored discriminator is the first eight
// bytes of sha256("account:" + family).
type Family string

const (
	FamilyPortfolio  Family = "PortfolioRecord"
	FamilyIssuer     Family = "Issuer"
	FamilyCredential Family = "Credential"
)

// DiscriminatorSize prefixes every slot.
const DiscriminatorSize = 8

// Exact slot sizes, discriminator included.
const (
	PortfolioRecordSize = DiscriminatorSize + 32 + 8 + 32 + 8
	IssuerSize          = DiscriminatorSize + 32 + 4 + MaxIssuerNameLen + 1
	CredentialSize      = DiscriminatorSize + 32 + 32 + 32 + 8 + 1
)

var discriminators = map[Family][DiscriminatorSize]byte{
	FamilyPortfolio:  discriminator(FamilyPortfolio),
	FamilyIssuer:     discriminator(FamilyIssuer),
	FamilyCredential: discriminator(FamilyCredential),
}

func discriminator(f Family) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + string(f)))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Discriminator returns the slot prefix for f.
func Discriminator(f Family) [DiscriminatorSize]byte {
	return discriminators[f]
}

// FamilyOf identifies the family of raw slot bytes.
func FamilyOf(data []byte) (Family, bool) {
	if len(data) < DiscriminatorSize {
		return "", false
	}
	for f, d := range discriminators {
		if bytes.Equal(data[:DiscriminatorSize], d[:]) {
			return f, true
		}
	}
	return "", false
}

// SizeOf returns the exact slot size of f.
func SizeOf(f Family) int {
	switch f {
	case FamilyPortfolio:
		return PortfolioRecordSize
	case FamilyIssuer:
		return IssuerSize
	case FamilyCredential:
		return CredentialSize
	}
	return 0
}

func (r *PortfolioRecord) MarshalBinary() ([]byte, error) {
	buf := newSlot(FamilyPortfolio)
	off := DiscriminatorSize
	off += copy(buf[off:], r.Authority[:])
	binary.LittleEndian.PutUint64(buf[off:], r.Version)
	off += 8
	off += copy(buf[off:], r.Hash[:])
	binary.LittleEndian.PutUint64(buf[off:], uint64(r.UpdatedAt.Unix()))
	return buf, nil
}

func (r *PortfolioRecord) UnmarshalBinary(data []byte) error {
	if err := checkSlot(data, FamilyPortfolio); err != nil {
		return err
	}
	off := DiscriminatorSize
	off += copy(r.Authority[:], data[off:])
	r.Version = binary.LittleEndian.Uint64(data[off:])
	off += 8
	off += copy(r.Hash[:], data[off:])
	r.UpdatedAt = unix(data[off:])
	return nil
}

func (r *Issuer) MarshalBinary() ([]byte, error) {
	if err := ValidateIssuerName(r.Name); err != nil {
		return nil, err
	}
	buf := newSlot(FamilyIssuer)
	off := DiscriminatorSize
	off += copy(buf[off:], r.Authority[:])
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Name)))
	off += 4
	copy(buf[off:off+MaxIssuerNameLen], r.Name)
	off += MaxIssuerNameLen
	buf[off] = r.Bump
	return buf, nil
}

func (r *Issuer) UnmarshalBinary(data []byte) error {
	if err := checkSlot(data, FamilyIssuer); err != nil {
		return err
	}
	off := DiscriminatorSize
	off += copy(r.Authority[:], data[off:])
	n := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if n > MaxIssuerNameLen {
		return fmt.Errorf("issuer name length %d: %w", n, sentinel.ErrInvalidState)
	}
	r.Name = string(data[off : off+int(n)])
	off += MaxIssuerNameLen
	r.Bump = data[off]
	return nil
}

func (r *Credential) MarshalBinary() ([]byte, error) {
	buf := newSlot(FamilyCredential)
	off := DiscriminatorSize
	off += copy(buf[off:], r.Issuer[:])
	off += copy(buf[off:], r.Student[:])
	off += copy(buf[off:], r.Reference[:])
	binary.LittleEndian.PutUint64(buf[off:], uint64(r.IssuedAt.Unix()))
	off += 8
	buf[off] = r.Bump
	return buf, nil
}

func (r *Credential) UnmarshalBinary(data []byte) error {
	if err := checkSlot(data, FamilyCredential); err != nil {
		return err
	}
	off := DiscriminatorSize
	off += copy(r.Issuer[:], data[off:])
	off += copy(r.Student[:], data[off:])
	off += copy(r.Reference[:], data[off:])
	r.IssuedAt = unix(data[off:])
	off += 8
	r.Bump = data[off]
	return nil
}

func newSlot(f Family) []byte {
	buf := make([]byte, SizeOf(f))
	d := discriminators[f]
	copy(buf, d[:])
	return buf
}

func checkSlot(data []byte, f Family) error {
	if len(data) != SizeOf(f) {
		return fmt.Errorf("%s slot is %d bytes, want %d: %w", f, len(data), SizeOf(f), sentinel.ErrInvalidState)
	}
	if got, ok := FamilyOf(data); !ok || got != f {
		return fmt.Errorf("slot does not hold a %s: %w", f, sentinel.ErrInvalidState)
	}
	return nil
}

func unix(b []byte) time.Time {
	return time.Unix(int64(binary.LittleEndian.Uint64(b)), 0).UTC()
}

// Package address derives record addresses from a kind tag and ordered key
// fields.
//
// An address is sha256(seed_0 ‖ … ‖ seed_n ‖ bump ‖ program ‖ marker). The
// bump is searched downward from 255 and the first digest that is not a
// valid Ed25519 point wins, so no derived address can ever have a private
// key. Callers persist the bump so CreateWithBump can rebuild the address
// without searching.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"folio/pkg/domain"
)

const (
	// MaxSeeds bounds the seed list, bump included.
	MaxSeeds = 16
	// MaxSeedLen bounds a single seed.
	MaxSeedLen = 32

	marker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds        = errors.New("too many seeds")
	ErrSeedTooLong         = errors.New("seed exceeds 32 bytes")
	ErrReservedAddress     = errors.New("address falls in the reserved key space")
	ErrDerivationExhausted = errors.New("no bump produces a valid address")
)

// CreateWithBump rebuilds an address from seeds and a known bump.
func CreateWithBump(program domain.Address, bump uint8, seeds ...[]byte) (domain.Address, error) {
	if err := checkSeeds(seeds); err != nil {
		return domain.Address{}, err
	}
	addr := hashSeeds(program, bump, seeds)
	if onCurve(addr) {
		return domain.Address{}, ErrReservedAddress
	}
	return addr, nil
}

// Derive searches for the highest bump that yields an off-curve address.
// ErrDerivationExhausted is final for the given inputs.
func Derive(program domain.Address, seeds ...[]byte) (domain.Address, uint8, error) {
	if err := checkSeeds(seeds); err != nil {
		return domain.Address{}, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		addr := hashSeeds(program, uint8(bump), seeds)
		if !onCurve(addr) {
			return addr, uint8(bump), nil
		}
	}
	return domain.Address{}, 0, ErrDerivationExhausted
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) >= MaxSeeds {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManySeeds, len(seeds), MaxSeeds-1)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLen {
			return fmt.Errorf("%w: seed %d is %d bytes", ErrSeedTooLong, i, len(s))
		}
	}
	return nil
}

func hashSeeds(program domain.Address, bump uint8, seeds [][]byte) domain.Address {
	h := sha256.New()
	for _, s := range seeds {
		_, _ = h.Write(s)
	}
	_, _ = h.Write([]byte{bump})
	_, _ = h.Write(program[:])
	_, _ = h.Write([]byte(marker))
	var out domain.Address
	copy(out[:], h.Sum(nil))
	return out
}

// onCurve reports whether b decodes as a compressed Edwards25519 point.
func onCurve(b domain.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// Package store persists registry records in address-keyed slots.
//
// A Store encodes records into their fixed slot layout and delegates raw
// bytes to a Substrate. Substrates only know about addresses and bytes;
// they report contention through sentinel errors and never decide whether
// an overwrite is legal. That decision comes from the guard passed to
// Upsert, evaluated against the bytes already stored.
package store

import (
	"context"
	"errors"
	"fmt"

	"folio/internal/registry/models"
	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

// Substrate is raw, address-keyed slot storage.
//
// Implementations must make CreateIfAbsent and Upsert atomic per address:
// two concurrent CreateIfAbsent calls for one address yield exactly one
// success and one sentinel.ErrAlreadyUsed.
type Substrate interface {
	// CreateIfAbsent writes data only if the slot is empty.
	CreateIfAbsent(ctx context.Context, addr domain.Address, data []byte) error
	// Upsert creates the slot or, when it exists, overwrites it after guard
	// accepts the stored bytes. A guard error aborts without writing.
	Upsert(ctx context.Context, addr domain.Address, data []byte, guard func(prev []byte) error) (created bool, err error)
	// Get returns sentinel.ErrNotFound for an empty slot.
	Get(ctx context.Context, addr domain.Address) ([]byte, error)
	// GetMany returns the occupied slots among addrs; empty ones are omitted.
	GetMany(ctx context.Context, addrs []domain.Address) (map[domain.Address][]byte, error)
}

// Store reads and writes typed registry records.
type Store struct {
	slots Substrate
}

func New(slots Substrate) *Store {
	return &Store{slots: slots}
}

// PutPortfolio creates or overwrites the portfolio slot at addr. An
// existing slot is only overwritten by a record with the same authority
// and version.
func (s *Store) PutPortfolio(ctx context.Context, addr domain.Address, rec *models.PortfolioRecord) (bool, error) {
	data, err := rec.MarshalBinary()
	if err != nil {
		return false, err
	}
	created, err := s.slots.Upsert(ctx, addr, data, func(prev []byte) error {
		var stored models.PortfolioRecord
		if err := stored.UnmarshalBinary(prev); err != nil {
			return err
		}
		return stored.CanOverwrite(rec)
	})
	if err != nil {
		return false, fmt.Errorf("put portfolio %s: %w", addr, err)
	}
	return created, nil
}

// CreateIssuer writes a new issuer slot. Returns sentinel.ErrAlreadyUsed
// when the slot is taken.
func (s *Store) CreateIssuer(ctx context.Context, addr domain.Address, iss *models.Issuer) error {
	data, err := iss.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.slots.CreateIfAbsent(ctx, addr, data); err != nil {
		return fmt.Errorf("create issuer %s: %w", addr, err)
	}
	return nil
}

// CreateCredential writes a new credential slot. Returns
// sentinel.ErrAlreadyUsed when the slot is taken.
func (s *Store) CreateCredential(ctx context.Context, addr domain.Address, cred *models.Credential) error {
	data, err := cred.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.slots.CreateIfAbsent(ctx, addr, data); err != nil {
		return fmt.Errorf("create credential %s: %w", addr, err)
	}
	return nil
}

func (s *Store) FindPortfolio(ctx context.Context, addr domain.Address) (*models.PortfolioRecord, error) {
	var rec models.PortfolioRecord
	if err := s.find(ctx, addr, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) FindIssuer(ctx context.Context, addr domain.Address) (*models.Issuer, error) {
	var iss models.Issuer
	if err := s.find(ctx, addr, &iss); err != nil {
		return nil, err
	}
	return &iss, nil
}

func (s *Store) FindCredential(ctx context.Context, addr domain.Address) (*models.Credential, error) {
	var cred models.Credential
	if err := s.find(ctx, addr, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// FindCredentials loads every credential present among addrs. A slot that
// holds some other family fails the whole batch.
func (s *Store) FindCredentials(ctx context.Context, addrs []domain.Address) (map[domain.Address]*models.Credential, error) {
	raw, err := s.slots.GetMany(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	out := make(map[domain.Address]*models.Credential, len(raw))
	for addr, data := range raw {
		var cred models.Credential
		if err := cred.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", addr, err)
		}
		out[addr] = &cred
	}
	return out, nil
}

type decoder interface {
	UnmarshalBinary([]byte) error
}

func (s *Store) find(ctx context.Context, addr domain.Address, into decoder) error {
	data, err := s.slots.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("slot %s: %w", addr, sentinel.ErrNotFound)
		}
		return fmt.Errorf("read slot %s: %w", addr, err)
	}
	if err := into.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decode slot %s: %w", addr, err)
	}
	return nil
}

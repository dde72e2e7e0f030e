package store_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"folio/internal/registry/models"
	"folio/internal/registry/store"
	"folio/internal/registry/store/slots"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	slots *slots.Memory
	store *store.Store
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.slots = slots.NewMemory()
	s.store = store.New(s.slots)
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
}

func id(label string) domain.Identity {
	return domain.Identity(sha256.Sum256([]byte(label)))
}

func at(label string) domain.Address {
	return domain.Address(sha256.Sum256([]byte("addr:" + label)))
}

func (s *StoreSuite) TestPortfolioUpsert() {
	ctx := context.Background()
	owner := id("owner")
	a := at("portfolio")

	created, err := s.store.PutPortfolio(ctx, a, models.NewPortfolioRecord(owner, 1, domain.DigestOf([]byte("h1")), s.now))
	s.Require().NoError(err)
	s.True(created)

	later := s.now.Add(time.Hour)
	created, err = s.store.PutPortfolio(ctx, a, models.NewPortfolioRecord(owner, 1, domain.DigestOf([]byte("h2")), later))
	s.Require().NoError(err)
	s.False(created)

	got, err := s.store.FindPortfolio(ctx, a)
	s.Require().NoError(err)
	s.Equal(domain.DigestOf([]byte("h2")), got.Hash)
	s.Equal(later, got.UpdatedAt)
}

func (s *StoreSuite) TestPortfolioOverwriteByAnotherAuthorityIsRejected() {
	ctx := context.Background()
	a := at("portfolio")
	_, err := s.store.PutPortfolio(ctx, a, models.NewPortfolioRecord(id("owner"), 1, domain.DigestOf([]byte("h1")), s.now))
	s.Require().NoError(err)

	_, err = s.store.PutPortfolio(ctx, a, models.NewPortfolioRecord(id("thief"), 1, domain.DigestOf([]byte("evil")), s.now))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	got, err := s.store.FindPortfolio(ctx, a)
	s.Require().NoError(err)
	s.Equal(id("owner"), got.Authority)
	s.Equal(domain.DigestOf([]byte("h1")), got.Hash)
}

func (s *StoreSuite) TestIssuerIsCreateOnce() {
	ctx := context.Background()
	a := at("issuer")
	iss, err := models.NewIssuer(id("uni"), "Uni", 255)
	s.Require().NoError(err)

	s.Require().NoError(s.store.CreateIssuer(ctx, a, iss))
	renamed, err := models.NewIssuer(id("uni"), "Other", 255)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateIssuer(ctx, a, renamed), sentinel.ErrAlreadyUsed)

	got, err := s.store.FindIssuer(ctx, a)
	s.Require().NoError(err)
	s.Equal("Uni", got.Name)
}

func (s *StoreSuite) TestCredentialIsCreateOnce() {
	ctx := context.Background()
	a := at("cred")
	cred := models.NewCredential(at("issuer"), id("student"), domain.DigestOf([]byte("ref")), s.now, 254)

	s.Require().NoError(s.store.CreateCredential(ctx, a, cred))
	s.ErrorIs(s.store.CreateCredential(ctx, a, cred), sentinel.ErrAlreadyUsed)

	got, err := s.store.FindCredential(ctx, a)
	s.Require().NoError(err)
	s.Equal(*cred, *got)
}

func (s *StoreSuite) TestFindMissing() {
	_, err := s.store.FindIssuer(context.Background(), at("nobody"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestFindWrongFamily() {
	ctx := context.Background()
	a := at("issuer")
	iss, err := models.NewIssuer(id("uni"), "Uni", 1)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateIssuer(ctx, a, iss))

	_, err = s.store.FindCredential(ctx, a)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *StoreSuite) TestFindCredentials() {
	ctx := context.Background()
	c1 := models.NewCredential(at("issuer"), id("s1"), domain.DigestOf([]byte("r1")), s.now, 255)
	c2 := models.NewCredential(at("issuer"), id("s2"), domain.DigestOf([]byte("r2")), s.now, 253)
	s.Require().NoError(s.store.CreateCredential(ctx, at("c1"), c1))
	s.Require().NoError(s.store.CreateCredential(ctx, at("c2"), c2))

	got, err := s.store.FindCredentials(ctx, []domain.Address{at("c1"), at("c2"), at("c3")})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(*c1, *got[at("c1")])
	s.Equal(*c2, *got[at("c2")])
}

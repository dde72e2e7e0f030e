package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Deriver,AuditPublisher

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"folio/internal/registry/address"
	"folio/internal/registry/models"
	"folio/internal/registry/service/mocks"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	audit "folio/pkg/platform/audit"
	"folio/pkg/platform/sentinel"
)

// =============================================================================
// Service Port Test Suite
// =============================================================================
// Justification for mock tests: ordering guarantees (validation before
// derivation, authorization before mutation) and error translation are only
// observable at the ports.

type ServicePortSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	deriver   *mocks.MockDeriver
	publisher *mocks.MockAuditPublisher
	service   *Service
}

func TestServicePortSuite(t *testing.T) {
	suite.Run(t, new(ServicePortSuite))
}

func (s *ServicePortSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.deriver = mocks.NewMockDeriver(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.store, s.deriver,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
}

func (s *ServicePortSuite) TearDownTest() {
	s.ctrl.Finish()
}

var (
	uni      = domain.Identity(sha256.Sum256([]byte("uni")))
	uniAddr  = domain.Address(sha256.Sum256([]byte("uni-addr")))
	credAddr = domain.Address(sha256.Sum256([]byte("cred-addr")))
)

func (s *ServicePortSuite) TestOversizedNameNeverDerives() {
	// No EXPECT on deriver or store: any call fails the test.
	_, err := s.service.RegisterIssuer(as(uni), uni, strings.Repeat("n", 65))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServicePortSuite) TestUnauthorizedRegistrationNeverWrites() {
	s.deriver.EXPECT().Issuer(uni).Return(uniAddr, uint8(255), nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventAuthorizationDenied), e.Action)
		return nil
	})

	_, err := s.service.RegisterIssuer(as(ident("mallory")), uni, "Uni")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServicePortSuite) TestDerivationExhausted() {
	s.deriver.EXPECT().Issuer(uni).Return(domain.Address{}, uint8(0), address.ErrDerivationExhausted)

	_, err := s.service.RegisterIssuer(as(uni), uni, "Uni")
	s.True(dErrors.HasCode(err, dErrors.CodeDerivationExhausted))
	s.ErrorIs(err, address.ErrDerivationExhausted)
}

func (s *ServicePortSuite) TestSlotOccupiedTranslatesToConflict() {
	s.deriver.EXPECT().Issuer(uni).Return(uniAddr, uint8(254), nil)
	s.store.EXPECT().CreateIssuer(gomock.Any(), uniAddr, gomock.Any()).Return(sentinel.ErrAlreadyUsed)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.RegisterIssuer(as(uni), uni, "Uni")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServicePortSuite) TestStoreFailureIsInternal() {
	s.deriver.EXPECT().Issuer(uni).Return(uniAddr, uint8(254), nil)
	s.store.EXPECT().CreateIssuer(gomock.Any(), uniAddr, gomock.Any()).Return(errors.New("connection reset"))

	_, err := s.service.RegisterIssuer(as(uni), uni, "Uni")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServicePortSuite) TestAuditFailureDoesNotFailWrite() {
	s.deriver.EXPECT().Issuer(uni).Return(uniAddr, uint8(254), nil)
	s.store.EXPECT().CreateIssuer(gomock.Any(), uniAddr, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Address, iss *models.Issuer) error {
			s.Equal(uint8(254), iss.Bump)
			s.Equal(uni, iss.Authority)
			return nil
		})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

	receipt, err := s.service.RegisterIssuer(as(uni), uni, "Uni")
	s.Require().NoError(err)
	s.Equal(uniAddr, receipt.Address)
}

func (s *ServicePortSuite) TestIssueLoadsIssuerBeforeDeriving() {
	student := ident("student")
	ref := domain.DigestOf([]byte("ref"))

	gomock.InOrder(
		s.store.EXPECT().FindIssuer(gomock.Any(), uniAddr).Return(&models.Issuer{Authority: uni, Name: "Uni", Bump: 255}, nil),
		s.deriver.EXPECT().Credential(uniAddr, student, ref).Return(credAddr, uint8(253), nil),
		s.store.EXPECT().CreateCredential(gomock.Any(), credAddr, gomock.Any()).Return(nil),
	)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	receipt, err := s.service.IssueCredential(as(uni), uni, uniAddr, student, ref)
	s.Require().NoError(err)
	s.Equal(credAddr, receipt.Address)
	s.Equal(uint8(253), receipt.Credential.Bump)
	s.Equal(time.Unix(1_700_000_000, 0).UTC(), receipt.Credential.IssuedAt)
}

func (s *ServicePortSuite) TestIssueUnderMissingIssuer() {
	s.store.EXPECT().FindIssuer(gomock.Any(), uniAddr).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.IssueCredential(as(uni), uni, uniAddr, ident("student"), domain.Digest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServicePortSuite) TestGetCredentialRejectsMismatchedSlot() {
	cred := &models.Credential{Issuer: uniAddr, Student: ident("s"), Bump: 250}
	s.store.EXPECT().FindCredential(gomock.Any(), credAddr).Return(cred, nil)
	s.deriver.EXPECT().VerifyCredential(credAddr, uniAddr, cred.Student, cred.Reference, uint8(250)).Return(false)

	_, err := s.service.GetCredential(context.Background(), credAddr)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

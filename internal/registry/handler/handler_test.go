package handler

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"folio/internal/registry/address"
	"folio/internal/registry/auth"
	"folio/internal/registry/service"
	"folio/internal/registry/store"
	"folio/internal/registry/store/slots"
	"folio/pkg/domain"
	"folio/pkg/platform/audit"
	"folio/pkg/platform/audit/store/memory"
)

type HandlerSuite struct {
	suite.Suite
	router *chi.Mux
	proofs *auth.ProofService
	audit  *memory.InMemoryStore
	uni    ed25519.PrivateKey
	alice  ed25519.PrivateKey
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

type auditSink struct{ store *memory.InMemoryStore }

func (a auditSink) Emit(ctx context.Context, e audit.Event) error {
	e.Category = audit.AuditEvent(e.Action).Category()
	return a.store.Append(ctx, e)
}

func keyFor(label string) ed25519.PrivateKey {
	seed := sha256.Sum256([]byte("seed:" + label))
	return ed25519.NewKeyFromSeed(seed[:])
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.audit = memory.NewInMemoryStore()
	clock := func() time.Time { return now }
	s.proofs = auth.NewProofService("folio-test",
		auth.WithProofClock(clock),
		auth.WithReplayCache(auth.NewMemoryReplayCache(clock)),
	)
	svc := service.New(
		store.New(slots.NewMemory()),
		address.NewDeriver(domain.Address{}),
		service.WithLogger(logger),
		service.WithClock(func() time.Time { return now }),
	)
	s.router = chi.NewRouter()
	New(svc, s.proofs, logger, WithAuditPublisher(auditSink{s.audit})).Register(s.router)
	s.uni = keyFor("university")
	s.alice = keyFor("alice")
}

func (s *HandlerSuite) post(path string, key ed25519.PrivateKey, op auth.Operation, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	if key != nil {
		token, err := s.proofs.Sign(key, op, raw)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *HandlerSuite) registerIssuer(name string) IssuerResponse {
	rec := s.post("/v1/issuers", s.uni, auth.OpRegisterIssuer, RegisterIssuerRequest{Name: name})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[IssuerResponse](s, rec)
}

func (s *HandlerSuite) TestPublishPortfolioCreatesThenOverwrites() {
	hash := domain.DigestOf([]byte("portfolio v1"))
	rec := s.post("/v1/portfolios", s.alice, auth.OpPublishPortfolio, PublishPortfolioRequest{Version: 1, Hash: hash.String()})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[PortfolioResponse](s, rec)
	s.Equal(auth.IdentityOf(s.alice).String(), created.Authority)
	s.Equal(hash.CID(), created.HashCID)

	// Same slot, hash given as a CID this time.
	next := domain.DigestOf([]byte("portfolio v1, revised"))
	rec = s.post("/v1/portfolios", s.alice, auth.OpPublishPortfolio, PublishPortfolioRequest{Version: 1, Hash: next.CID()})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[PortfolioResponse](s, rec)
	s.Equal(created.Address, updated.Address)
	s.Equal(next.String(), updated.Hash)

	rec = s.get("/v1/portfolios/" + created.Authority + "/1")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(next.String(), decode[PortfolioResponse](s, rec).Hash)
}

func (s *HandlerSuite) TestReplayedProofIsRefused() {
	hash := domain.DigestOf([]byte("portfolio"))
	raw, err := json.Marshal(PublishPortfolioRequest{Version: 1, Hash: hash.String()})
	s.Require().NoError(err)
	token, err := s.proofs.Sign(s.alice, auth.OpPublishPortfolio, raw)
	s.Require().NoError(err)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/portfolios", bytes.NewReader(raw))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}
	s.Require().Equal(http.StatusCreated, send().Code)
	s.Equal(http.StatusUnauthorized, send().Code)
}

func (s *HandlerSuite) TestMutationWithoutProof() {
	rec := s.post("/v1/issuers", nil, auth.OpRegisterIssuer, RegisterIssuerRequest{Name: "Uni"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	events, err := s.audit.ListAll(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventProofRejected), events[0].Action)
	s.Equal(audit.CategorySecurity, events[0].Category)
}

func (s *HandlerSuite) TestProofForAnotherOperation() {
	rec := s.post("/v1/issuers", s.uni, auth.OpPublishPortfolio, RegisterIssuerRequest{Name: "Uni"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestClaimedSignerMustMatchProof() {
	rec := s.post("/v1/issuers", s.alice, auth.OpRegisterIssuer, RegisterIssuerRequest{
		Signer: auth.IdentityOf(s.uni).String(),
		Name:   "Uni",
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.get("/v1/authorities/" + auth.IdentityOf(s.uni).String() + "/issuer")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestRegisterIssuerTwiceConflicts() {
	issuer := s.registerIssuer("Uni")
	s.Equal(auth.IdentityOf(s.uni).String(), issuer.Authority)

	rec := s.post("/v1/issuers", s.uni, auth.OpRegisterIssuer, RegisterIssuerRequest{Name: "Other"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.get("/v1/issuers/" + issuer.Address)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Uni", decode[IssuerResponse](s, rec).Name)
}

func (s *HandlerSuite) TestRegisterIssuerNameTooLong() {
	rec := s.post("/v1/issuers", s.uni, auth.OpRegisterIssuer, RegisterIssuerRequest{Name: string(bytes.Repeat([]byte("x"), 65))})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestIssueAndFindCredentials() {
	issuer := s.registerIssuer("Uni")
	student := auth.IdentityOf(s.alice).String()
	ref1 := domain.DigestOf([]byte("diploma"))
	ref2 := domain.DigestOf([]byte("transcript"))

	for _, ref := range []domain.Digest{ref1, ref2} {
		rec := s.post("/v1/credentials", s.uni, auth.OpIssueCredential, IssueCredentialRequest{
			Issuer: issuer.Address, Student: student, Reference: ref.String(),
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.post("/v1/credentials", s.uni, auth.OpIssueCredential, IssueCredentialRequest{
		Issuer: issuer.Address, Student: student, Reference: ref1.String(),
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.get("/v1/issuers/" + issuer.Address + "/credentials/" + student + "/" + ref1.String())
	s.Require().Equal(http.StatusOK, rec.Code)
	one := decode[CredentialResponse](s, rec)
	s.Equal(ref1.String(), one.Reference)

	rec = s.get("/v1/credentials/" + one.Address)
	s.Require().Equal(http.StatusOK, rec.Code)

	missing := domain.DigestOf([]byte("never issued"))
	rec = s.get("/v1/issuers/" + issuer.Address + "/students/" + student + "/credentials?reference=" +
		ref2.String() + "&reference=" + missing.String() + "&reference=" + ref1.String())
	s.Require().Equal(http.StatusOK, rec.Code)
	list := decode[CredentialListResponse](s, rec)
	s.Require().Len(list.Credentials, 2)
	s.Equal(ref2.String(), list.Credentials[0].Reference)
	s.Equal(ref1.String(), list.Credentials[1].Reference)
}

func (s *HandlerSuite) TestIssueUnderSomeoneElsesIssuer() {
	issuer := s.registerIssuer("Uni")
	rec := s.post("/v1/credentials", s.alice, auth.OpIssueCredential, IssueCredentialRequest{
		Issuer:    issuer.Address,
		Student:   auth.IdentityOf(s.alice).String(),
		Reference: domain.DigestOf([]byte("forged")).String(),
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestMalformedInput() {
	rec := s.get("/v1/issuers/not-base58!")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.get("/v1/portfolios/" + auth.IdentityOf(s.alice).String() + "/minus-one")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.post("/v1/portfolios", s.alice, auth.OpPublishPortfolio, map[string]any{"version": 1, "hash": "zz", "extra": true})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.post("/v1/credentials", s.uni, auth.OpIssueCredential, IssueCredentialRequest{})
	s.Equal(http.StatusBadRequest, rec.Code)
}

// Package handler exposes the registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"folio/internal/registry/auth"
	"folio/internal/registry/models"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	"folio/pkg/platform/audit"
	"folio/pkg/platform/httputil"
	authmw "folio/pkg/platform/middleware/auth"
	request "folio/pkg/platform/middleware/request"
	fstrings "folio/pkg/platform/strings"
	"folio/pkg/requestcontext"
)

// Service is the registry surface the handler drives.
type Service interface {
	PublishPortfolio(ctx context.Context, signer domain.Identity, version uint64, hash domain.Digest) (*models.PortfolioReceipt, error)
	GetPortfolio(ctx context.Context, authority domain.Identity, version uint64) (*models.PortfolioReceipt, error)
	RegisterIssuer(ctx context.Context, signer domain.Identity, name string) (*models.IssuerReceipt, error)
	GetIssuer(ctx context.Context, addr domain.Address) (*models.IssuerReceipt, error)
	GetIssuerByAuthority(ctx context.Context, authority domain.Identity) (*models.IssuerReceipt, error)
	IssueCredential(ctx context.Context, signer domain.Identity, issuer domain.Address, student domain.Identity, reference domain.Digest) (*models.CredentialReceipt, error)
	GetCredential(ctx context.Context, addr domain.Address) (*models.CredentialReceipt, error)
	FindCredential(ctx context.Context, issuer domain.Address, student domain.Identity, reference domain.Digest) (*models.CredentialReceipt, error)
	FindCredentials(ctx context.Context, issuer domain.Address, student domain.Identity, references []domain.Digest) ([]*models.CredentialReceipt, error)
}

// ProofVerifier checks a proof minted for op over body.
type ProofVerifier interface {
	Verify(ctx context.Context, token string, op auth.Operation, body []byte) (domain.Identity, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler serves the /v1 registry routes.
type Handler struct {
	logger       *slog.Logger
	service      Service
	proofs       ProofVerifier
	audit        AuditPublisher
	maxBodyBytes int64
}

type Option func(*Handler)

// WithAuditPublisher records rejected proofs.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(h *Handler) { h.audit = p }
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBodyBytes = n }
}

func New(service Service, proofs ProofVerifier, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		proofs:  proofs,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the registry routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.With(h.requireProof(auth.OpPublishPortfolio)).Post("/portfolios", h.handlePublishPortfolio)
		r.With(h.requireProof(auth.OpRegisterIssuer)).Post("/issuers", h.handleRegisterIssuer)
		r.With(h.requireProof(auth.OpIssueCredential)).Post("/credentials", h.handleIssueCredential)

		r.Get("/portfolios/{authority}/{version}", h.handleGetPortfolio)
		r.Get("/authorities/{authority}/issuer", h.handleGetIssuerByAuthority)
		r.Get("/issuers/{address}", h.handleGetIssuer)
		r.Get("/issuers/{address}/credentials/{student}/{reference}", h.handleFindCredential)
		r.Get("/issuers/{address}/students/{student}/credentials", h.handleFindCredentials)
		r.Get("/credentials/{address}", h.handleGetCredential)
	})
}

func (h *Handler) requireProof(op auth.Operation) func(http.Handler) http.Handler {
	verify := func(ctx context.Context, token string, body []byte) (domain.Identity, error) {
		return h.proofs.Verify(ctx, token, op, body)
	}
	opts := []authmw.Option{authmw.WithRejectHook(h.onProofRejected(op))}
	if h.maxBodyBytes > 0 {
		opts = append(opts, authmw.WithMaxBodyBytes(h.maxBodyBytes))
	}
	return authmw.RequireProof(verify, h.logger, opts...)
}

func (h *Handler) onProofRejected(op auth.Operation) func(*http.Request, error) {
	return func(r *http.Request, err error) {
		if h.audit == nil {
			return
		}
		ctx := r.Context()
		event := audit.Event{
			Action:    string(audit.EventProofRejected),
			Decision:  "denied",
			Reason:    string(op) + ": " + dErrors.Message(err),
			RequestID: request.GetRequestID(ctx),
		}
		if emitErr := h.audit.Emit(ctx, event); emitErr != nil {
			h.logger.WarnContext(ctx, "failed to emit audit event", "error", emitErr)
		}
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"error", err, "request_id", request.GetRequestID(ctx)}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handlePublishPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PublishPortfolioRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(ctx, w, "invalid publish portfolio request", err)
		return
	}
	signer, hash, err := req.Parse(requestcontext.Signer(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid publish portfolio request", err)
		return
	}

	receipt, err := h.service.PublishPortfolio(ctx, signer, req.Version, hash)
	if err != nil {
		h.writeError(ctx, w, "failed to publish portfolio", err)
		return
	}

	status := http.StatusOK
	if receipt.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, toPortfolioResponse(receipt))
}

func (h *Handler) handleRegisterIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterIssuerRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(ctx, w, "invalid register issuer request", err)
		return
	}
	signer, err := req.Parse(requestcontext.Signer(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid register issuer request", err)
		return
	}

	receipt, err := h.service.RegisterIssuer(ctx, signer, req.Name)
	if err != nil {
		h.writeError(ctx, w, "failed to register issuer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssuerResponse(receipt))
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IssueCredentialRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(ctx, w, "invalid issue credential request", err)
		return
	}
	k, err := req.Parse(requestcontext.Signer(ctx))
	if err != nil {
		h.writeError(ctx, w, "invalid issue credential request", err)
		return
	}

	receipt, err := h.service.IssueCredential(ctx, k.signer, k.issuer, k.student, k.reference)
	if err != nil {
		h.writeError(ctx, w, "failed to issue credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCredentialResponse(receipt))
}

func (h *Handler) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authority, err := domain.ParseIdentity(chi.URLParam(r, "authority"))
	if err != nil {
		h.writeError(ctx, w, "invalid portfolio lookup", err)
		return
	}
	version, err := strconv.ParseUint(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		h.writeError(ctx, w, "invalid portfolio lookup", dErrors.New(dErrors.CodeInvalidInput, "version must be an unsigned integer"))
		return
	}

	receipt, err := h.service.GetPortfolio(ctx, authority, version)
	if err != nil {
		h.writeError(ctx, w, "failed to load portfolio", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPortfolioResponse(receipt))
}

func (h *Handler) handleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(ctx, w, "invalid issuer lookup", err)
		return
	}
	receipt, err := h.service.GetIssuer(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to load issuer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(receipt))
}

func (h *Handler) handleGetIssuerByAuthority(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authority, err := domain.ParseIdentity(chi.URLParam(r, "authority"))
	if err != nil {
		h.writeError(ctx, w, "invalid issuer lookup", err)
		return
	}
	receipt, err := h.service.GetIssuerByAuthority(ctx, authority)
	if err != nil {
		h.writeError(ctx, w, "failed to load issuer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(receipt))
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(ctx, w, "invalid credential lookup", err)
		return
	}
	receipt, err := h.service.GetCredential(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to load credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(receipt))
}

func (h *Handler) parseIssuerStudent(r *http.Request) (domain.Address, domain.Identity, error) {
	issuer, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		return domain.Address{}, domain.Identity{}, err
	}
	student, err := domain.ParseIdentity(chi.URLParam(r, "student"))
	if err != nil {
		return domain.Address{}, domain.Identity{}, err
	}
	return issuer, student, nil
}

func (h *Handler) handleFindCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, student, err := h.parseIssuerStudent(r)
	if err != nil {
		h.writeError(ctx, w, "invalid credential lookup", err)
		return
	}
	reference, err := domain.ParseDigest(chi.URLParam(r, "reference"))
	if err != nil {
		h.writeError(ctx, w, "invalid credential lookup", err)
		return
	}

	receipt, err := h.service.FindCredential(ctx, issuer, student, reference)
	if err != nil {
		h.writeError(ctx, w, "failed to load credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(receipt))
}

// handleFindCredentials resolves ?reference=a,b&reference=c in order.
// Repeats are collapsed and missing credentials omitted.
func (h *Handler) handleFindCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, student, err := h.parseIssuerStudent(r)
	if err != nil {
		h.writeError(ctx, w, "invalid credential lookup", err)
		return
	}
	raw := fstrings.SplitList(r.URL.Query()["reference"], ",")
	refs := make([]domain.Digest, 0, len(raw))
	for _, s := range raw {
		ref, err := domain.ParseDigest(s)
		if err != nil {
			h.writeError(ctx, w, "invalid credential lookup", err)
			return
		}
		refs = append(refs, ref)
	}

	receipts, err := h.service.FindCredentials(ctx, issuer, student, refs)
	if err != nil {
		h.writeError(ctx, w, "failed to load credentials", err)
		return
	}
	resp := CredentialListResponse{Credentials: make([]CredentialResponse, 0, len(receipts))}
	for _, rc := range receipts {
		if rc != nil {
			resp.Credentials = append(resp.Credentials, toCredentialResponse(rc))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Package auth verifies identity proofs on mutating requests.
//
// A proof is a bearer token bound to the exact request body, so the
// middleware buffers the body, verifies, and hands the same bytes on to the
// handler.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	request "folio/pkg/platform/middleware/request"
	"folio/pkg/requestcontext"
)

// DefaultMaxBodyBytes bounds the buffered request body.
const DefaultMaxBodyBytes = 64 << 10

// Verifier checks a proof token against the raw request body and returns
// the proven signer.
type Verifier func(ctx context.Context, token string, body []byte) (domain.Identity, error)

type config struct {
	maxBody  int64
	onReject func(r *http.Request, err error)
}

type Option func(*config)

func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithRejectHook is called for every rejected proof, after logging.
func WithRejectHook(fn func(r *http.Request, err error)) Option {
	return func(c *config) {
		c.onReject = fn
	}
}

var errMissingProof = errors.New("missing or malformed Authorization header")

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireProof rejects requests without a valid proof and records the
// proven signer on the context.
func RequireProof(verify Verifier, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(status int, code, desc string, err error) {
				logger.WarnContext(ctx, "identity proof rejected",
					"error", err,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				if cfg.onReject != nil {
					cfg.onReject(r, err)
				}
				writeJSONError(w, status, code, desc)
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				reject(http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header", errMissingProof)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					reject(http.StatusRequestEntityTooLarge, "bad_request", "Request body too large", err)
					return
				}
				reject(http.StatusBadRequest, "bad_request", "Unreadable request body", err)
				return
			}

			signer, err := verify(ctx, token, body)
			if err != nil {
				if dErrors.CodeOf(err) == dErrors.CodeUnavailable {
					reject(http.StatusServiceUnavailable, "unavailable", "Proof verification temporarily unavailable", err)
					return
				}
				reject(http.StatusUnauthorized, "unauthorized", "Invalid identity proof", err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSigner(ctx, signer)))
		})
	}
}

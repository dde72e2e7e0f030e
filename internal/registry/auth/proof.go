package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
)

// Operation names the mutation a proof authorizes.
type Operation string

const (
	OpPublishPortfolio Operation = "publish_portfolio"
	OpRegisterIssuer   Operation = "register_issuer"
	OpIssueCredential  Operation = "issue_credential"
)

// DefaultProofLifetime caps exp - iat when no lifetime is configured.
const DefaultProofLifetime = 5 * time.Minute

// Claims bind a proof to one operation and one exact request body. The
// subject is the signer's base58 identity, which is also the verification
// key.
type Claims struct {
	Operation Operation `json:"op"`
	Digest    string    `json:"dig"`
	jwt.RegisteredClaims
}

// ProofService mints and checks EdDSA-signed identity proofs.
type ProofService struct {
	audience    string
	maxLifetime time.Duration
	clock       func() time.Time
	replays     ReplayCache
}

type ProofOption func(*ProofService)

// WithProofClock sets the clock used for iat/exp; tests pin it.
func WithProofClock(clock func() time.Time) ProofOption {
	return func(s *ProofService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMaxLifetime bounds how long a proof stays valid.
func WithMaxLifetime(d time.Duration) ProofOption {
	return func(s *ProofService) {
		if d > 0 {
			s.maxLifetime = d
		}
	}
}

// WithReplayCache makes every proof single-use: a jti seen before its
// expiry is refused.
func WithReplayCache(cache ReplayCache) ProofOption {
	return func(s *ProofService) {
		s.replays = cache
	}
}

// NewProofService scopes proofs to audience, usually the program id, so a
// proof minted for one deployment cannot be replayed against another.
func NewProofService(audience string, opts ...ProofOption) *ProofService {
	s := &ProofService{
		audience:    audience,
		maxLifetime: DefaultProofLifetime,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IdentityOf returns the identity a private key signs as.
func IdentityOf(key ed25519.PrivateKey) domain.Identity {
	var id domain.Identity
	copy(id[:], key.Public().(ed25519.PublicKey))
	return id
}

// BodyDigest is the value of the dig claim for body.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Sign produces a compact proof that key's owner requests op with body.
func (s *ProofService) Sign(key ed25519.PrivateKey, op Operation, body []byte) (string, error) {
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		Operation: op,
		Digest:    BodyDigest(body),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   IdentityOf(key).String(),
			Audience:  []string{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxLifetime)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(key)
}

// Verify checks signature, audience, freshness, operation and body binding
// and returns the proven signer. With a replay cache configured the proof
// is consumed.
func (s *ProofService) Verify(ctx context.Context, tokenString string, op Operation, body []byte) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFor,
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof has expired")
		}
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid proof")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid proof claims")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > s.maxLifetime {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof lifetime too long")
	}
	if claims.Operation != op {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof was issued for another operation")
	}
	if subtle.ConstantTimeCompare([]byte(claims.Digest), []byte(BodyDigest(body))) != 1 {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof does not match request body")
	}
	signer, err := domain.ParseIdentity(claims.Subject)
	if err != nil {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid proof subject")
	}
	if s.replays != nil {
		if claims.ID == "" {
			return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof has no id")
		}
		fresh, err := s.replays.Remember(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "proof replay check unavailable")
		}
		if !fresh {
			return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "proof has already been used")
		}
	}
	return signer, nil
}

func (s *ProofService) keyFor(token *jwt.Token) (any, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	signer, err := domain.ParseIdentity(claims.Subject)
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(signer[:]), nil
}

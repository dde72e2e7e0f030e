package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	dErrors "folio/pkg/domain-errors"
)

// DigestSize is the width of content hashes and credential references.
const DigestSize = sha256.Size

// Digest is an opaque 32-byte value computed by the caller, such as the
// SHA-256 of a portfolio JSON document or of a credential payload.
type Digest [DigestSize]byte

// DigestOf hashes data with SHA-256.
func DigestOf(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// ParseDigest accepts either 64 hex characters or a CID whose multihash is
// a full-length sha2-256 digest.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "digest is required")
	}
	if len(s) == 2*DigestSize {
		if raw, err := hex.DecodeString(s); err == nil {
			return Digest(raw), nil
		}
	}
	c, err := cid.Decode(s)
	if err != nil {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "digest must be 64 hex characters or a sha2-256 CID")
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "invalid CID multihash")
	}
	if decoded.Code != multihash.SHA2_256 || len(decoded.Digest) != DigestSize {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "CID must use a full sha2-256 multihash")
	}
	return Digest(decoded.Digest), nil
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
func (d Digest) Bytes() []byte  { return d[:] }

// CID renders the digest as a CIDv1 with the raw codec.
func (d Digest) CID() string {
	mh, err := multihash.Encode(d[:], multihash.SHA2_256)
	if err != nil {
		// Encode only fails for unknown codes.
		return ""
	}
	return cid.NewCidV1(cid.Raw, mh).String()
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

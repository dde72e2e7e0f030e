package models

import (
	"crypto/sha256"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

func key(label string) [32]byte {
	return sha256.Sum256([]byte(label))
}

var now = time.Date(2026, 3, 1, 12, 30, 45, 999, time.UTC)

// TestSlotSizesMatchSchema pins the persisted layout; changing a size breaks
// every stored slot.
func TestSlotSizesMatchSchema(t *testing.T) {
	assert.Equal(t, 88, PortfolioRecordSize)
	assert.Equal(t, 109, IssuerSize)
	assert.Equal(t, 113, CredentialSize)
}

func TestPortfolioLayout(t *testing.T) {
	rec := NewPortfolioRecord(domain.Identity(key("owner")), 7, domain.DigestOf([]byte("doc")), now)

	raw, err := rec.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, PortfolioRecordSize)
	fam, ok := FamilyOf(raw)
	require.True(t, ok)
	assert.Equal(t, FamilyPortfolio, fam)

	var got PortfolioRecord
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, *rec, got)
	assert.Equal(t, now.Truncate(time.Second), got.UpdatedAt)
}

func TestIssuerLayout(t *testing.T) {
	t.Run("pads short names", func(t *testing.T) {
		iss, err := NewIssuer(domain.Identity(key("uni")), "Acme University", 254)
		require.NoError(t, err)

		raw, err := iss.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, raw, IssuerSize)

		var got Issuer
		require.NoError(t, got.UnmarshalBinary(raw))
		assert.Equal(t, *iss, got)
	})

	t.Run("keeps a 64 byte name", func(t *testing.T) {
		name := strings.Repeat("n", MaxIssuerNameLen)
		iss, err := NewIssuer(domain.Identity(key("uni")), name, 1)
		require.NoError(t, err)
		raw, err := iss.MarshalBinary()
		require.NoError(t, err)

		var got Issuer
		require.NoError(t, got.UnmarshalBinary(raw))
		assert.Equal(t, name, got.Name)
	})

	t.Run("rejects a 65 byte name", func(t *testing.T) {
		_, err := NewIssuer(domain.Identity(key("uni")), strings.Repeat("n", MaxIssuerNameLen+1), 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		bad := &Issuer{Name: strings.Repeat("n", MaxIssuerNameLen+1)}
		_, err = bad.MarshalBinary()
		require.Error(t, err)
	})

	t.Run("counts bytes not runes", func(t *testing.T) {
		// 22 three-byte runes = 66 bytes
		require.Error(t, ValidateIssuerName(strings.Repeat("€", 22)))
		require.NoError(t, ValidateIssuerName(strings.Repeat("€", 21)))
	})

	t.Run("rejects corrupt name length", func(t *testing.T) {
		iss, err := NewIssuer(domain.Identity(key("uni")), "x", 1)
		require.NoError(t, err)
		raw, err := iss.MarshalBinary()
		require.NoError(t, err)
		raw[DiscriminatorSize+32] = 0xff

		var got Issuer
		require.ErrorIs(t, got.UnmarshalBinary(raw), sentinel.ErrInvalidState)
	})
}

func TestCredentialLayout(t *testing.T) {
	cred := NewCredential(domain.Address(key("issuer")), domain.Identity(key("student")), domain.DigestOf([]byte("ref")), now, 250)

	raw, err := cred.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, CredentialSize)

	var got Credential
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, *cred, got)
}

func TestDecodeRejectsOtherFamilies(t *testing.T) {
	rec := NewPortfolioRecord(domain.Identity(key("owner")), 1, domain.Digest{}, now)
	raw, err := rec.MarshalBinary()
	require.NoError(t, err)

	var iss Issuer
	require.ErrorIs(t, iss.UnmarshalBinary(raw), sentinel.ErrInvalidState)

	// Same length, wrong discriminator.
	forged := make([]byte, PortfolioRecordSize)
	var pr PortfolioRecord
	require.ErrorIs(t, pr.UnmarshalBinary(forged), sentinel.ErrInvalidState)

	_, ok := FamilyOf([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestPortfolioCanOverwrite(t *testing.T) {
	owner := domain.Identity(key("owner"))
	stored := NewPortfolioRecord(owner, 3, domain.DigestOf([]byte("v3")), now)

	assert.NoError(t, stored.CanOverwrite(NewPortfolioRecord(owner, 3, domain.DigestOf([]byte("v3b")), now)))

	err := stored.CanOverwrite(NewPortfolioRecord(domain.Identity(key("thief")), 3, domain.Digest{}, now))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	err = stored.CanOverwrite(NewPortfolioRecord(owner, 4, domain.Digest{}, now))
	require.Error(t, err)
}

func TestDiscriminatorsAreDistinct(t *testing.T) {
	a, b, c := Discriminator(FamilyPortfolio), Discriminator(FamilyIssuer), Discriminator(FamilyCredential)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.NotEqual(t, a, c)
}

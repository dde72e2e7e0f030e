package domain

import (
	"crypto/sha256"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "folio/pkg/domain-errors"
)

func testKey(label string) [KeySize]byte {
	return sha256.Sum256([]byte(label))
}

// TestParseIdentity_Invariants validates the parsing invariant:
// "keys must be valid base58, exactly 32 bytes, and non-zero"
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-base58 characters", func(t *testing.T) {
		_, err := ParseIdentity("0OIl")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects short keys", func(t *testing.T) {
		_, err := ParseIdentity(base58.Encode([]byte("short")))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero key", func(t *testing.T) {
		_, err := ParseIdentity(base58.Encode(make([]byte, KeySize)))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("z", 1000))
		require.Error(t, err)
	})

	t.Run("accepts valid key", func(t *testing.T) {
		key := testKey("alice")
		id, err := ParseIdentity(base58.Encode(key[:]))
		require.NoError(t, err)
		assert.Equal(t, Identity(key), id)
	})
}

func TestKeyRoundTrip(t *testing.T) {
	id := Identity(testKey("issuer-authority"))
	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	addr := Address(testKey("slot"))
	parsedAddr, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsedAddr)
}

func TestKeyJSON(t *testing.T) {
	type payload struct {
		Authority Identity `json:"authority"`
		Address   Address  `json:"address"`
	}
	in := payload{Authority: Identity(testKey("a")), Address: Address(testKey("b"))}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Authority.String())

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"authority":"not-a-key"}`), &out)
	require.Error(t, err)
}

// TestIdentityAndAddressAreDistinct documents that identities and derived
// addresses cannot be assigned to each other without an explicit conversion.
func TestIdentityAndAddressAreDistinct(t *testing.T) {
	key := testKey("same-bytes")
	// var _ Address = Identity(key) // compile error
	assert.Equal(t, Identity(key).String(), Address(key).String())
}

// internal/auth/adminkey_test.go
package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminKeyHashAndVerify(t *testing.T) {
	key, err := GenerateAdminKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	hash, err := HashAdminKey(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyAdminKey(key, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyAdminKey("wrong-key", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAdminKeyMalformedHash(t *testing.T) {
	_, err := VerifyAdminKey("key", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestGenerateRoomCode(t *testing.T) {
	code, err := GenerateRoomCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, ch := range code {
		assert.Contains(t, roomCodeAlphabet, string(ch))
	}
}

func TestPlayerTokenRoundTrip(t *testing.T) {
	Init()

	playerID := uuid.New()
	token, err := CreatePlayerToken(playerID, "ABCDEF")
	require.NoError(t, err)

	gotPlayer, gotRoom, err := AuthenticatePlayerToken(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, gotPlayer)
	assert.Equal(t, "ABCDEF", gotRoom)
}

func TestPlayerTokenRejectsTampering(t *testing.T) {
	Init()

	token, err := CreatePlayerToken(uuid.New(), "ABCDEF")
	require.NoError(t, err)

	_, _, err = AuthenticatePlayerToken(token + "x")
	assert.Error(t, err)
}

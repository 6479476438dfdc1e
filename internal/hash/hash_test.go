package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	Cost = bcrypt.MinCost
	m.Run()
}

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, pw := range []string{"password", "Secret123", "пароль", " spaced out "} {
		h, err := HashPassword(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, h)
		assert.True(t, CheckPassword(h, pw))
		assert.False(t, CheckPassword(h, pw+"x"))
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, CheckPassword(h1, "same"))
	assert.True(t, CheckPassword(h2, "same"))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("", "password"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "password"))
	assert.False(t, CheckPassword("$2a$10$short", "password"))
}

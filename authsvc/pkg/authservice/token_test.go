package authservice

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = authsvc.Identity{ID: "u-1", Email: "alice@example.com", Role: authsvc.RoleAdmin}

func TestTokenizer_RoundTrip(t *testing.T) {
	tk := NewTokenizer("secret", time.Hour)

	token, err := tk.Generate(alice)
	require.NoError(t, err)

	got, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestTokenizer_EmbedsExpiry(t *testing.T) {
	tk := NewTokenizer("secret", 7*24*time.Hour)

	token, err := tk.Generate(alice)
	require.NoError(t, err)

	var claims Claims
	_, _, err = new(jwt.Parser).ParseUnverified(token, &claims)
	require.NoError(t, err)

	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenizer_RejectsExpired(t *testing.T) {
	tk := &tokenizer{
		secret: []byte("secret"),
		expiry: time.Hour,
		now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
	}

	token, err := tk.Generate(alice)
	require.NoError(t, err)

	_, err = tk.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenizer_RejectsMissingExpiry(t *testing.T) {
	claims := Claims{
		UserID:           "u-1",
		Email:            "alice@example.com",
		Role:             authsvc.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenizer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenizer_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenizer("other-secret", time.Hour).Generate(alice)
	require.NoError(t, err)

	_, err = NewTokenizer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenizer_RejectsMalformed(t *testing.T) {
	tk := NewTokenizer("secret", time.Hour)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := tk.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestTokenizer_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "u-1", Role: authsvc.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenizer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenizer_RejectsUnknownRole(t *testing.T) {
	tk := NewTokenizer("secret", time.Hour)

	token, err := tk.Generate(authsvc.Identity{ID: "u-1", Email: "x@example.com", Role: "root"})
	require.NoError(t, err)

	_, err = tk.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

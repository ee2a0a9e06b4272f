package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", Expiration: 8 * time.Hour})

	token, claims, err := j.GenerateToken("u1", "master")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, "master", parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), parsed.ExpiresAt.Time, time.Minute)
}

func TestValidate_WrongKey(t *testing.T) {
	a := NewJWTUtil(&JWTConfig{SigningKey: "a", Expiration: time.Hour})
	b := NewJWTUtil(&JWTConfig{SigningKey: "b", Expiration: time.Hour})

	token, _, err := a.GenerateToken("u1", "admin")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidate_Expired(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", Expiration: time.Hour})
	issued := time.Now().Add(-2 * time.Hour)
	j.now = func() time.Time { return issued }

	token, _, err := j.GenerateToken("u1", "master")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", Expiration: time.Hour})

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &UserClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.ValidateToken(signed)
	assert.Error(t, err)
}

func TestGenerate_RequiresKey(t *testing.T) {
	_, _, err := NewJWTUtil(&JWTConfig{}).GenerateToken("u1", "master")
	assert.Error(t, err)
}

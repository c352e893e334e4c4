package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret")

	token, err := auth.GenerateJWT("user-42", time.Hour)
	require.NoError(t, err)

	claims, err := auth.VerifyJWT(token)
	require.NoError(t, err)

	actor, ok := ActorID(claims)
	require.True(t, ok)
	assert.Equal(t, "user-42", actor)
}

func TestAuthServiceRejects(t *testing.T) {
	auth := NewAuthService("test-secret")

	expired, err := auth.GenerateJWT("user-42", -time.Minute)
	require.NoError(t, err)
	_, err = auth.VerifyJWT(expired)
	assert.Error(t, err)

	forged, err := NewAuthService("other-secret").GenerateJWT("user-42", time.Hour)
	require.NoError(t, err)
	_, err = auth.VerifyJWT(forged)
	assert.Error(t, err)

	_, err = NewAuthService("").VerifyJWT(forged)
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestActorIDFallsBackToSubject(t *testing.T) {
	actor, ok := ActorID(jwt.MapClaims{"sub": "user-9"})
	require.True(t, ok)
	assert.Equal(t, "user-9", actor)

	_, ok = ActorID(jwt.MapClaims{"email": "x@example.com"})
	assert.False(t, ok)
}

package service

import (
	"testing"
	"time"

	"billiard-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	us := NewUserService(nil, "test-secret", time.Hour)

	token, err := us.issueToken(&models.User{ID: 7, Username: "maria", Role: models.RoleAdmin})
	require.NoError(t, err)

	auth, err := us.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), auth.UserID)
	assert.Equal(t, "maria", auth.Username)
	assert.Equal(t, models.RoleAdmin, auth.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewUserService(nil, "secret-a", time.Hour)
	verifier := NewUserService(nil, "secret-b", time.Hour)

	token, err := issuer.issueToken(&models.User{ID: 1, Username: "jose", Role: models.RoleStaff})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
	assert.IsType(t, &models.AuthError{}, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	us := NewUserService(nil, "test-secret", -time.Minute)

	token, err := us.issueToken(&models.User{ID: 1, Username: "jose", Role: models.RoleStaff})
	require.NoError(t, err)

	_, err = us.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	us := NewUserService(nil, "test-secret", time.Hour)

	_, err := us.ParseToken("not.a.token")
	assert.Error(t, err)

	_, err = us.ParseToken("")
	assert.Error(t, err)
}

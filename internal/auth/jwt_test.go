package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign(42, RoleEmployer)
	require.NoError(t, err)

	ident, err := j.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, ident.UserID)
	require.Equal(t, RoleEmployer, ident.Role)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWT("secret-a").Sign(42, RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWT("secret-b").Verify(token)
	require.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	_, err := NewJWT("test-secret").Verify("not.a.token")
	require.Error(t, err)
}

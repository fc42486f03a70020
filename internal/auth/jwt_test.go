package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("u-1", "teacher@x.com", "Ms. Frizzle", RoleTeacher, "classtrack", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := Parse(pair.AccessToken, "secret", "classtrack")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "teacher@x.com", claims.Email)
	assert.Equal(t, "Ms. Frizzle", claims.Name)
	assert.Equal(t, RoleTeacher, claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("u-1", "a@x.com", "A", RoleStudent, "classtrack", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-secret", "classtrack")
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("u-1", "a@x.com", "A", RoleStudent, "someone-else", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "classtrack")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("u-1", "a@x.com", "A", RoleStudent, "classtrack", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "classtrack")
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken("alice", RoleGuest)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleGuest, claims.Role)
}

func TestAdminToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := &Manager{secret: []byte("test-secret"), ttl: -time.Hour}

	token, err := m.GenerateToken("alice", RoleGuest)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateToken("alice", RoleGuest)
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", StripBearer("Bearer abc.def.ghi"))
	assert.Equal(t, "abc.def.ghi", StripBearer("abc.def.ghi"))
	assert.Equal(t, "", StripBearer(""))
}

func TestAdminCredentials(t *testing.T) {
	creds := AdminCredentials{Username: "admin", Password: "hunter2"}

	assert.True(t, creds.Verify("admin", "hunter2"))
	assert.False(t, creds.Verify("admin", "wrong"))
	assert.False(t, creds.Verify("alice", "hunter2"))
	assert.False(t, creds.Verify("", ""))
}

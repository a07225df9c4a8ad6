package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onduty/internal/onduty"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "onduty-test"
)

func TestIssueAndParse(t *testing.T) {
	ident := onduty.Identity{
		ID:     "user123",
		Role:   onduty.RoleStudent,
		Name:   "Sanjay Kumar",
		RollNo: "7377222IT228",
	}

	pair, err := Issue(ident, testIssuer, testKey, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := Parse(pair.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	require.Equal(t, ident, claims.Identity())
	require.NotEmpty(t, claims.RegisteredClaims.ID)
}

func TestParse_Failures(t *testing.T) {
	ident := onduty.Identity{ID: "admin", Role: onduty.RoleAdmin}
	pair, err := Issue(ident, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{"wrong key", pair.AccessToken, "other-key", testIssuer},
		{"issuer mismatch", pair.AccessToken, testKey, "someone-else"},
		{"garbage token", "not.a.jwt", testKey, testIssuer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.token, tc.key, tc.issuer)
			require.Error(t, err)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	ident := onduty.Identity{ID: "admin", Role: onduty.RoleAdmin}
	pair, err := Issue(ident, testIssuer, testKey, -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, testKey, testIssuer)
	require.Error(t, err)
}

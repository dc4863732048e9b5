package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"axiapac.com/timeclock/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	secret := []byte("operator-secret")
	out, err := execute(t, "token", "--secret", base64.StdEncoding.EncodeToString(secret), "--subject", "alice", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := security.ParseServiceToken(strings.TrimSpace(out), secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenCommandRejectsBadSecret(t *testing.T) {
	_, err := execute(t, "token", "--secret", "not base64!")
	assert.Error(t, err)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "compute without from", args: []string{"compute"}, want: `"from" not set`},
		{name: "bad device id", args: []string{"sync", "abc"}, want: `invalid device id "abc"`},
		{name: "history needs id", args: []string{"history"}, want: "accepts 1 arg"},
		{name: "too many args", args: []string{"cleanup", "1", "2"}, want: "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestComputeDates(t *testing.T) {
	opts := &ComputeOptions{From: "2024-01-15"}
	from, to, err := opts.dates()
	require.NoError(t, err)
	assert.Equal(t, from, to)

	opts = &ComputeOptions{From: "2024-01-15", To: "2024-01-10"}
	_, _, err = opts.dates()
	assert.ErrorContains(t, err, "before")
}

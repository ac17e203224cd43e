package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/backend/internal/auth"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRE_HOURS", "2")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--subject", "organizer@example.com"})
	require.NoError(t, cmd.Execute())

	claims, err := auth.NewJWTService("secret", 2).Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "organizer@example.com", claims.Subject)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd := newRootCommand()
	cmd.SetArgs([]string{"token", "--subject", "x"})
	assert.ErrorContains(t, cmd.Execute(), "JWT_SECRET")
}

func TestRecordingsRequireSession(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"recordings", "store"})
	assert.ErrorContains(t, cmd.Execute(), "session")
}

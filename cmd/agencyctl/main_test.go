package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightside-studio/backend/internal/config"
	"github.com/brightside-studio/backend/pkg/auth"
)

func TestAdminToken_PrintsVerifiableToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "cli-test-secret-with-at-least-32-bytes")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("ADMIN_USER_IDS", "alice")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"admin-token", "alice", "--ttl", "1h"})
	require.NoError(t, root.Execute())

	token := strings.TrimSpace(out.String())
	userID, err := auth.VerifySessionToken(token, auth.SessionSecretBytes("cli-test-secret-with-at-least-32-bytes"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
	assert.Empty(t, errOut.String())
}

func TestAdminToken_WarnsForUnknownAdmin(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("ADMIN_USER_IDS", "alice")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"admin-token", "mallory"})
	require.NoError(t, root.Execute())

	assert.Contains(t, errOut.String(), "not in ADMIN_USER_IDS")
	_, err := auth.VerifySessionToken(strings.TrimSpace(out.String()), auth.SessionSecretBytes(config.DevSessionSecret), time.Now())
	assert.NoError(t, err)
}

func TestAdminToken_RequiresUserID(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"admin-token"})
	assert.Error(t, root.Execute())
}

func TestMigrate_RejectsUnknownArgs(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "sideways"})
	assert.Error(t, root.Execute())
}

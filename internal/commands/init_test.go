package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveledger-dev/hiveledger/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "init", dir, "--account", "alice", "--token", "LEO")
	require.NoError(t, err)
	assert.Contains(t, out, "hiveledger.yaml")

	cfg, err := config.Load(filepath.Join(dir, "hiveledger.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Account)
	assert.Equal(t, "LEO", cfg.Token)
	assert.Equal(t, "0.01", cfg.DustThreshold)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()

	_, err := runCommand(t, "init", dir, "--account", "alice", "--token", "LEO")
	require.NoError(t, err)

	_, err = runCommand(t, "init", dir, "--account", "alice", "--token", "LEO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitRequiresAccount(t *testing.T) {
	_, err := runCommand(t, "init", t.TempDir(), "--token", "LEO")
	require.Error(t, err)
}

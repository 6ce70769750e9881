package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		vaultsFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vaultsocial "), out)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "vaults.yaml")
	yaml := "vaults:\n  - url: https://alice.example/\n    path: " + filepath.Join(dir, "alice") + "\n"
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o600))

	out, err := execute(t, "check", "--vaults", file)
	require.NoError(t, err)
	assert.Contains(t, out, "https://alice.example ->")
}

func TestCheckCommandNeedsFile(t *testing.T) {
	_, err := execute(t, "check", "--vaults", "")
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeydtaylor/webhook-handler/pkg/serverfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_ListsEntriesInOrder(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(p, []byte(`{
		"run": [{"command": "true"}, {"command": "false"}],
		"email": {},
		"print": {"fmt": "{path}"}
	}`), 0o644))

	out, err := runCmd(t, "check", "--config", p)
	require.NoError(t, err)
	assert.Equal(t, "run: 2 invocation(s)\nprint: 1 invocation(s)\n", out)
}

func TestCheck_MissingConfigUsesDefaults(t *testing.T) {
	t.Setenv(serverfx.EnvConfig, "")
	t.Setenv(serverfx.EnvDebug, "")
	missing := filepath.Join(t.TempDir(), "nope.json")

	out, err := runCmd(t, "check", "-c", missing)
	require.NoError(t, err)
	assert.Equal(t, "no handlers configured\n", out)

	out, err = runCmd(t, "check", "-c", missing, "--debug")
	require.NoError(t, err)
	assert.Equal(t, "print: 1 invocation(s)\n", out)
}

func TestCheck_BadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"print": 1}`), 0o644))

	_, err := runCmd(t, "check", "-c", p)
	assert.ErrorContains(t, err, "load "+p)
}

func TestRootCmd_FlagDefaultsFromEnv(t *testing.T) {
	t.Setenv(serverfx.EnvListen, "127.0.0.1:9999")
	t.Setenv(serverfx.EnvAllMethods, "1")

	cmd := newRootCmd()
	assert.Equal(t, "127.0.0.1:9999", cmd.Flags().Lookup("listen").DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("all-methods").DefValue)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	_, err := runCmd(t, "extra")
	assert.Error(t, err)
}

func TestNewApp_BadConfigFails(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"run": "echo"}`), 0o644))

	app := newApp(serverfx.Options{ConfigPath: p, ListenAddr: "127.0.0.1:0"})
	assert.Error(t, app.Err())
}

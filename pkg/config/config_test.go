package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DatabasePath)
	assert.Empty(t, cfg.Processes)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{
		Token:        "pat-123",
		DatabasePath: "/tmp/tasks.db",
		Processes: []ProcessBinding{
			{ProcessID: "proc-1", Name: "Strategic Planning", ProjectGID: "1200001"},
		},
	}
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pat-123", got.Token)
	assert.Equal(t, "/tmp/tasks.db", got.DatabasePath)
	require.Len(t, got.Processes, 1)
	assert.Equal(t, "1200001", got.Processes[0].ProjectGID)
}

func TestResolveTokenPrecedence(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("pat-from-file\n"), 0600))

	t.Run("inline wins", func(t *testing.T) {
		cfg := &Config{Token: "pat-inline", TokenFile: tokenFile}
		token, err := cfg.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "pat-inline", token)
	})

	t.Run("token file", func(t *testing.T) {
		cfg := &Config{TokenFile: tokenFile}
		token, err := cfg.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "pat-from-file", token)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(tokenEnvVar, "pat-from-env")
		cfg := &Config{}
		token, err := cfg.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "pat-from-env", token)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(tokenEnvVar, "")
		cfg := &Config{}
		_, err := cfg.ResolveToken()
		assert.Error(t, err)
	})
}

func TestBinding(t *testing.T) {
	cfg := &Config{Processes: []ProcessBinding{
		{ProcessID: "proc-1", Name: "Strategic Planning", ProjectGID: "1200001"},
		{ProcessID: "proc-2", Name: "Onboarding", ProjectGID: "1200002"},
	}}

	b, ok := cfg.Binding("proc-2")
	require.True(t, ok)
	assert.Equal(t, "Onboarding", b.Name)

	_, ok = cfg.Binding("proc-9")
	assert.False(t, ok)
}

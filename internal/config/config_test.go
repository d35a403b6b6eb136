package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdemos/fetch"
	"github.com/hupe1980/agentdemos/session"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, fetch.DefaultTimeout, cfg.FetchTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentdemos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
model: claude-test
log_format: json
fetch_timeout: 3s
max_turns: 4
memory:
  strategy: last_n_messages
  max_turns: 5
`), 0o600))

	t.Setenv("AGENTDEMOS_LOG_LEVEL", "debug")
	t.Setenv("AGENTDEMOS_MAX_PARALLEL", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-test", cfg.Model)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.MaxTurns)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.NotNil(t, cfg.Logger())
	assert.Equal(t, session.LastNTurns{MaxTurns: 5, IncludeTools: true}, cfg.Window())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AGENTDEMOS_PROVIDER=mock\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("AGENTDEMOS_PROVIDER") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	for name, body := range map[string]string{
		"provider": "provider: cohere\n",
		"level":    "log_level: loud\n",
		"format":   "log_format: xml\n",
		"timeout":  "fetch_timeout: 0s\n",
		"turns":    "max_turns: 0\n",
		"yaml":     "provider: [unclosed\n",
		"memory":   "memory:\n  strategy: forever\n",
		"buffer":   "memory:\n  generation_buffer: 1.5\n",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestConfig_Window(t *testing.T) {
	cfg := Default()
	assert.Equal(t, session.TokenWindow{MaxContextTokens: session.DefaultMaxContextTokens, GenerationBuffer: session.DefaultGenerationBuffer}, cfg.Window())

	cfg.Memory.Strategy = MemoryStateless
	assert.Equal(t, session.Stateless{}, cfg.Window())

	t.Setenv("AGENTDEMOS_MEMORY_STRATEGY", "stateless")
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, MemoryStateless, loaded.Memory.Strategy)
}

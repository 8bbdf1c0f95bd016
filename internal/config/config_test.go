package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shell: /bin/zsh\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", cfg.Shell)
	assert.Equal(t, Defaults().HighWaterBytes, cfg.HighWaterBytes)
	assert.Equal(t, Defaults().ReapTimeoutMS, cfg.ReapTimeoutMS)
}

func TestLoadMalformedYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shell: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDurationHelpersConvertMilliseconds(t *testing.T) {
	cfg := Config{MinFrameIntervalMS: 16, DisconnectAfterMS: 5000, ReapTimeoutMS: 30000}
	assert.Equal(t, 16*time.Millisecond, cfg.MinFrameInterval())
	assert.Equal(t, 5*time.Second, cfg.DisconnectTimeout())
	assert.Equal(t, 30*time.Second, cfg.ReapTimeout())
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shell: /bin/sh\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	reloaded := make(chan Config, 1)
	w.OnReload(func(c Config) { reloaded <- c })
	require.NoError(t, w.Start())

	assert.Equal(t, "/bin/sh", w.Current().Shell)

	require.NoError(t, os.WriteFile(path, []byte("shell: /bin/bash\n"), 0o644))

	select {
	case c := <-reloaded:
		assert.Equal(t, "/bin/bash", c.Shell)
	case <-time.After(2 * time.Second):
		t.Fatal("config reload never fired")
	}
	assert.Equal(t, "/bin/bash", w.Current().Shell)
}

func TestDefaultSocketPathHonorsOverride(t *testing.T) {
	assert.Equal(t, "/tmp/custom.sock", DefaultSocketPath("/tmp/custom.sock"))
}

func TestDefaultSocketPathUsesRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/prise.sock", DefaultSocketPath(""))
}

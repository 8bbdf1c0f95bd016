package config

import (
	"os"
	"path/filepath"
)

func dirOf(p string) string  { return filepath.Dir(p) }
func baseOf(p string) string { return filepath.Base(p) }

// DefaultSocketPath resolves the Unix socket path per §6: a
// platform-specific runtime directory, falling back to
// $HOME/.cache/prise, joined with "prise.sock". An explicit override
// (e.g. --socket or PRISE_SOCKET) always wins and is returned unchanged.
func DefaultSocketPath(override string) string {
	if override != "" {
		return override
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "prise.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "prise", "prise.sock")
}

// DefaultSessionsDir resolves §4.8's `<state_dir>/prise/sessions`: the
// XDG state directory if set, else `$HOME/.local/state/prise/sessions`.
func DefaultSessionsDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "prise", "sessions")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", "prise", "sessions")
}

// Package config loads and hot-reloads prise.yaml: default shell, socket
// path override, redraw pacing, and the Session Manager's backpressure/reap
// tuning (§4.5, §7).
//
// Grounded on GandalftheGUI-grove's internal/daemon/project.go (YAML load
// via gopkg.in/yaml.v3, os.ReadFile + yaml.Unmarshal into a plain struct,
// os.IsNotExist distinguished from a parse error) for the load side, and
// elleryfamilia-thicc's internal/filemanager/watcher.go (fsnotify.Watcher,
// a debounced reload timer, log-and-continue on watch errors) for the
// hot-reload side.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the parsed contents of prise.yaml. All fields are optional;
// zero values are replaced by Defaults() at load time.
type Config struct {
	Shell     string   `yaml:"shell"`
	ShellArgs []string `yaml:"shell_args"`

	SocketPath string `yaml:"socket_path"`

	MinFrameIntervalMS int `yaml:"min_frame_interval_ms"`

	HighWaterBytes    int `yaml:"high_water_bytes"`
	LowWaterBytes     int `yaml:"low_water_bytes"`
	DisconnectAfterMS int `yaml:"disconnect_timeout_ms"`
	ReapTimeoutMS     int `yaml:"reap_timeout_ms"`
}

// Defaults returns the built-in configuration used when prise.yaml is
// absent or a field is left unset, matching internal/session.Config's own
// defaults so a daemon boots identically with or without a config file.
func Defaults() Config {
	return Config{
		Shell:              "/bin/sh",
		MinFrameIntervalMS: 16,
		HighWaterBytes:     1 << 20,
		LowWaterBytes:      1 << 18,
		DisconnectAfterMS:  5000,
		ReapTimeoutMS:      30000,
	}
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.Shell == "" {
		c.Shell = d.Shell
	}
	if c.MinFrameIntervalMS == 0 {
		c.MinFrameIntervalMS = d.MinFrameIntervalMS
	}
	if c.HighWaterBytes == 0 {
		c.HighWaterBytes = d.HighWaterBytes
	}
	if c.LowWaterBytes == 0 {
		c.LowWaterBytes = d.LowWaterBytes
	}
	if c.DisconnectAfterMS == 0 {
		c.DisconnectAfterMS = d.DisconnectAfterMS
	}
	if c.ReapTimeoutMS == 0 {
		c.ReapTimeoutMS = d.ReapTimeoutMS
	}
	return c
}

// MinFrameInterval is the configured redraw coalescing interval as a
// time.Duration, for internal/render.FrameClock.
func (c Config) MinFrameInterval() time.Duration {
	return time.Duration(c.MinFrameIntervalMS) * time.Millisecond
}

// DisconnectTimeout is how long a throttled client may stay over the
// backpressure high-water mark before the Session Manager forcibly
// detaches it (§4.5, §7).
func (c Config) DisconnectTimeout() time.Duration {
	return time.Duration(c.DisconnectAfterMS) * time.Millisecond
}

// ReapTimeout is how long a PTY with no attached clients is kept alive
// after its child exits, to allow a late reattach to see final output
// (§3, §7).
func (c Config) ReapTimeout() time.Duration {
	return time.Duration(c.ReapTimeoutMS) * time.Millisecond
}

// Load reads and parses path, applying Defaults() for any unset field. A
// missing file is not an error: Load returns Defaults() unchanged, since
// prise.yaml itself is optional (§6 names only a socket path default, not
// a mandatory config file).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c.withDefaults(), nil
}

// Package config holds the user configuration of noderig: the default
// version spec, the distribution mirror and per-command version pins.
//
// The configuration is a TOML file:
//
//	default_version = "lts"
//	dist_base_url = "https://nodejs.org/dist"
//
//	[pinned_commands]
//	yarn = "18"
//
// Unlike the release caches, a malformed configuration file is a fatal error:
// running with a configuration the user did not write would be surprising.
package config

import (
	"bytes"
	"fmt"
	"maps"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/noderig/pkg/versions"
)

// DefaultDistBaseURL is the official Node.js distribution mirror.
const DefaultDistBaseURL = "https://nodejs.org/dist"

// Config is the user configuration.
type Config struct {
	// DefaultVersion is used when no pin file, manifest or environment
	// variable selects a version.
	DefaultVersion versions.Spec `toml:"default_version"`

	// DistBaseURL is the root of the release index and archives.
	DistBaseURL string `toml:"dist_base_url"`

	// PinnedCommands maps a command name to the spec it always runs with,
	// regardless of the detected version.
	PinnedCommands map[string]versions.Spec `toml:"pinned_commands,omitempty"`
}

// Default returns the configuration written on first start.
func Default() Config {
	return Config{
		DefaultVersion: versions.LatestLTS,
		DistBaseURL:    DefaultDistBaseURL,
		PinnedCommands: map[string]versions.Spec{},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.PinnedCommands = maps.Clone(c.PinnedCommands)
	if c.PinnedCommands == nil {
		c.PinnedCommands = map[string]versions.Spec{}
	}
	return c
}

// Pinned returns the spec pinned for command, if any.
func (c Config) Pinned(command string) (versions.Spec, bool) {
	s, ok := c.PinnedCommands[command]
	return s, ok
}

// Parse decodes a TOML document. Missing keys take their default values;
// unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DefaultVersion.IsZero() {
		c.DefaultVersion = d.DefaultVersion
	}
	if c.DistBaseURL == "" {
		c.DistBaseURL = d.DistBaseURL
	}
	c.DistBaseURL = strings.TrimRight(c.DistBaseURL, "/")
	if c.PinnedCommands == nil {
		c.PinnedCommands = map[string]versions.Spec{}
	}
}

// Encode serializes c as TOML.
func (c Config) Encode() ([]byte, error) {
	c.applyDefaults()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

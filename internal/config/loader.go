package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRAILSCAN_"

// Load reads the file at path on top of the defaults, applies environment
// overrides and validates the result. The format follows the extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode TOML: unknown key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load for an optional path.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides replaces settings with the TRAILSCAN_* variables that are
// set. Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := getenv("CLASSIFIER"); v != "" {
		c.Classifier.Backend = v
	}
	if v := getenv("FILE_PATH"); v != "" {
		c.Classifier.FilePath = v
	}
	if v := getenv("FFMPEG_PATH"); v != "" {
		c.Probe.FFmpegPath = v
	}
	if v := getenv("PROBE_MODE"); v != "" {
		c.Probe.Mode = v
	}
	if v := getenv("MIDDLEWARE"); v != "" {
		c.Detect.Middleware = splitList(v)
	}
	if v, err := strconv.Atoi(getenv("WORKERS")); err == nil {
		c.Scan.Workers = v
	}
	if v, err := strconv.Atoi(getenv("MAX_DEPTH")); err == nil {
		c.Detect.MaxDepth = v
	}
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ostafen/trailscan/internal/config"
	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/logger"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/internal/probe"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, detect.DefaultOptions(), cfg.Options())
	require.Positive(t, cfg.Workers())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "trailscan.toml", `
[detect]
max_depth = 3
unknown_tail_ratio = 0.8
middleware = ["anti_ffc", "remux_matroska"]

[probe]
mode = "remux"
timeout = "5s"

[scan]
workers = 2
exclude = ["**/*.tmp"]

[store]
path = "/var/cache/trailscan.db"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 3, cfg.Detect.MaxDepth)
	require.Equal(t, 0.8, cfg.Detect.UnknownTailRatio)
	require.Equal(t, []string{"anti_ffc", "remux_matroska"}, cfg.Detect.Middleware)
	require.Equal(t, "remux", cfg.Probe.Mode)
	require.Equal(t, config.Duration(5*time.Second), cfg.Probe.Timeout)
	require.Equal(t, 2, cfg.Workers())
	require.Equal(t, []string{"**/*.tmp"}, cfg.Scan.Exclude)
	require.Equal(t, "/var/cache/trailscan.db", cfg.Store.Path)

	// untouched keys keep their defaults
	require.Equal(t, uint64(512), cfg.Detect.MinKnownRemainder)
	require.Equal(t, "builtin", cfg.Classifier.Backend)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "trailscan.yaml", `
detect:
  min_magic_span: 256
classifier:
  backend: file
  file_path: /usr/bin/file
probe:
  mode: "off"
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, uint64(256), cfg.Detect.MinMagicSpan)
	require.Equal(t, "file", cfg.Classifier.Backend)
	require.Equal(t, "off", cfg.Probe.Mode)
	require.Equal(t, "debug", cfg.Log.Level)

	classifier, err := cfg.NewClassifier()
	require.NoError(t, err)
	require.IsType(t, &mime.FileCommand{}, classifier)

	prober, err := cfg.NewProber()
	require.NoError(t, err)
	require.Nil(t, prober)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "trailscan.ini", "[detect]\n"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "bad.toml", "[detect\n"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "typo.toml", "[detect]\nmax_dept = 3\n"))
	require.ErrorContains(t, err, "max_dept")
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Detect.MaxDepth = 0
	cfg.Classifier.Backend = "magic"
	cfg.Probe.Mode = "strace"
	cfg.Scan.Workers = -1
	cfg.Scan.Include = []string{"[unterminated"}
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	require.Equal(t, []string{"detect", "classifier.backend", "probe.mode", "scan.workers", "scan", "log.level"}, fields)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRAILSCAN_LOG_LEVEL", "WARN")
	t.Setenv("TRAILSCAN_STORE_PATH", "/tmp/results.db")
	t.Setenv("TRAILSCAN_PROBE_MODE", "off")
	t.Setenv("TRAILSCAN_MIDDLEWARE", "anti_ffc, remux_matroska")
	t.Setenv("TRAILSCAN_WORKERS", "7")
	t.Setenv("TRAILSCAN_MAX_DEPTH", "not-a-number")

	path := writeConfig(t, "trailscan.toml", "[log]\nlevel = \"DEBUG\"\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "WARN", cfg.Log.Level)
	require.Equal(t, "/tmp/results.db", cfg.Store.Path)
	require.Equal(t, "off", cfg.Probe.Mode)
	require.Equal(t, []string{"anti_ffc", "remux_matroska"}, cfg.Detect.Middleware)
	require.Equal(t, 7, cfg.Scan.Workers)
	require.Equal(t, 8, cfg.Detect.MaxDepth)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := config.LoadOrDefault("")
	require.NoError(t, err)
	require.Equal(t, config.Default().Options(), cfg.Options())
}

func TestNewProber(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.Mode = "remux"
	cfg.Probe.Timeout = config.Duration(time.Second)

	p, err := cfg.NewProber()
	require.NoError(t, err)

	remux, ok := p.(*probe.Remux)
	require.True(t, ok)
	require.Equal(t, time.Second, remux.Timeout)
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Detect.Middleware = []string{"anti_ffc", "remux_matroska"}
	cfg.Detect.MaxDepth = 2

	e, err := cfg.NewEngine(logger.Discard())
	require.NoError(t, err)
	require.Equal(t, cfg.Options(), e.Options())
	require.NotEmpty(t, e.Routes())

	cfg.Detect.Middleware = []string{"unknown"}
	_, err = cfg.NewEngine(logger.Discard())
	require.Error(t, err)
}

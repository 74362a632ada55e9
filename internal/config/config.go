// Package config holds the settings of the trailscan commands.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/mime"
	"github.com/ostafen/trailscan/internal/probe"
)

// Config is the root configuration.
type Config struct {
	Detect     DetectConfig     `toml:"detect" yaml:"detect"`
	Classifier ClassifierConfig `toml:"classifier" yaml:"classifier"`
	Probe      ProbeConfig      `toml:"probe" yaml:"probe"`
	Scan       ScanConfig       `toml:"scan" yaml:"scan"`
	Store      StoreConfig      `toml:"store" yaml:"store"`
	Log        LogConfig        `toml:"log" yaml:"log"`
}

// DetectConfig holds the plausibility thresholds of the engine.
type DetectConfig struct {
	MaxDepth          int      `toml:"max_depth" yaml:"max_depth"`
	MinMagicSpan      uint64   `toml:"min_magic_span" yaml:"min_magic_span"`
	NullTolerance     uint64   `toml:"null_tolerance" yaml:"null_tolerance"`
	UnknownTailRatio  float64  `toml:"unknown_tail_ratio" yaml:"unknown_tail_ratio"`
	JPEGMinRatio      float64  `toml:"jpeg_min_ratio" yaml:"jpeg_min_ratio"`
	MinKnownRemainder uint64   `toml:"min_known_remainder" yaml:"min_known_remainder"`
	WindowSize        int      `toml:"window_size" yaml:"window_size"`
	Middleware        []string `toml:"middleware" yaml:"middleware"`
}

// ClassifierConfig selects how content types are identified.
type ClassifierConfig struct {
	// Backend is "builtin" or "file".
	Backend  string   `toml:"backend" yaml:"backend"`
	FilePath string   `toml:"file_path" yaml:"file_path"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}

// ProbeConfig configures the external media tools.
type ProbeConfig struct {
	FFmpegPath string `toml:"ffmpeg_path" yaml:"ffmpeg_path"`

	// Mode is "trace", "remux" or "off".
	Mode    string   `toml:"mode" yaml:"mode"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

type ScanConfig struct {
	// Workers is the number of files scanned in parallel. 0 means one per CPU.
	Workers        int      `toml:"workers" yaml:"workers"`
	Include        []string `toml:"include" yaml:"include"`
	Exclude        []string `toml:"exclude" yaml:"exclude"`
	FollowSymlinks bool     `toml:"follow_symlinks" yaml:"follow_symlinks"`
	Debounce       Duration `toml:"debounce" yaml:"debounce"`
}

type StoreConfig struct {
	// Path of the result cache. Empty disables it.
	Path string `toml:"path" yaml:"path"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := detect.DefaultOptions()

	return &Config{
		Detect: DetectConfig{
			MaxDepth:          opts.MaxDepth,
			MinMagicSpan:      opts.MinMagicSpan,
			NullTolerance:     opts.NullTolerance,
			UnknownTailRatio:  opts.UnknownTailRatio,
			JPEGMinRatio:      opts.JPEGMinRatio,
			MinKnownRemainder: opts.MinKnownRemainder,
			WindowSize:        opts.WindowSize,
			Middleware:        opts.Middleware,
		},
		Classifier: ClassifierConfig{
			Backend:  "builtin",
			FilePath: "file",
			Timeout:  Duration(30 * time.Second),
		},
		Probe: ProbeConfig{
			FFmpegPath: probe.DefaultFFmpeg,
			Mode:       "trace",
			Timeout:    Duration(probe.DefaultTimeout),
		},
		Scan: ScanConfig{
			Workers:  0,
			Debounce: Duration(500 * time.Millisecond),
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Options converts the detect section into engine options.
func (c *Config) Options() detect.Options {
	return detect.Options{
		MaxDepth:          c.Detect.MaxDepth,
		MinMagicSpan:      c.Detect.MinMagicSpan,
		NullTolerance:     c.Detect.NullTolerance,
		UnknownTailRatio:  c.Detect.UnknownTailRatio,
		JPEGMinRatio:      c.Detect.JPEGMinRatio,
		MinKnownRemainder: c.Detect.MinKnownRemainder,
		WindowSize:        c.Detect.WindowSize,
		Middleware:        c.Detect.Middleware,
	}
}

func (c *Config) NewClassifier() (mime.Classifier, error) {
	switch c.Classifier.Backend {
	case "builtin", "":
		return mime.NewSniffer(), nil
	case "file":
		return mime.NewFileCommand(c.Classifier.FilePath, time.Duration(c.Classifier.Timeout)), nil
	}
	return nil, fmt.Errorf("unknown classifier backend %q", c.Classifier.Backend)
}

func (c *Config) NewProber() (probe.Prober, error) {
	return probe.New(c.Probe.Mode, c.Probe.FFmpegPath, time.Duration(c.Probe.Timeout))
}

// NewEngine builds a detection engine from the configuration.
func (c *Config) NewEngine(log *slog.Logger) (*detect.Engine, error) {
	classifier, err := c.NewClassifier()
	if err != nil {
		return nil, err
	}

	prober, err := c.NewProber()
	if err != nil {
		return nil, err
	}

	return detect.New(c.Options(),
		detect.WithClassifier(classifier),
		detect.WithProber(prober),
		detect.WithRemuxer(probe.NewRemux(c.Probe.FFmpegPath, time.Duration(c.Probe.Timeout))),
		detect.WithLogger(log),
	)
}

func (c *Config) Workers() int {
	if c.Scan.Workers > 0 {
		return c.Scan.Workers
	}
	return runtime.NumCPU()
}

// Duration is a time.Duration written as a string such as "60s" in config
// files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

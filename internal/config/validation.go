package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError reports one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid setting of a configuration.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	classifierBackends = []string{"builtin", "file"}
	probeModes         = []string{"trace", "remux", "off"}
	logLevels          = []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR"}
)

func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := c.Options().Validate(); err != nil {
		add("detect", "%v", err)
	}

	if !slices.Contains(classifierBackends, c.Classifier.Backend) {
		add("classifier.backend", "must be one of %s, got %q", strings.Join(classifierBackends, ", "), c.Classifier.Backend)
	}
	if c.Classifier.Backend == "file" && c.Classifier.FilePath == "" {
		add("classifier.file_path", "required by the file backend")
	}

	if !slices.Contains(probeModes, c.Probe.Mode) {
		add("probe.mode", "must be one of %s, got %q", strings.Join(probeModes, ", "), c.Probe.Mode)
	}
	if c.Probe.Mode != "off" && c.Probe.FFmpegPath == "" {
		add("probe.ffmpeg_path", "required unless probing is off")
	}
	if c.Probe.Timeout <= 0 {
		add("probe.timeout", "must be positive")
	}

	if c.Scan.Workers < 0 {
		add("scan.workers", "must not be negative, got %d", c.Scan.Workers)
	}
	for _, pattern := range slices.Concat(c.Scan.Include, c.Scan.Exclude) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			add("scan", "invalid pattern %q: %v", pattern, err)
		}
	}

	if !slices.Contains(logLevels, strings.ToUpper(c.Log.Level)) {
		add("log.level", "unknown level %q", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

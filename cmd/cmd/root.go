package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/ostafen/trailscan/internal/config"
	"github.com/ostafen/trailscan/internal/detect"
	"github.com/ostafen/trailscan/internal/env"
	"github.com/ostafen/trailscan/internal/logger"
	"github.com/spf13/cobra"
)

var AppName = env.AppName

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - find data appended after the end of files",
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path of a TOML or YAML configuration file")
	flags.String("log-level", "", "minimum level of the detailed log (DEBUG, INFO, WARN, ERROR)")
	flags.String("log-file", "", "write the detailed log to this file")

	rootCmd.AddCommand(
		DefineDetectCommand(),
		DefineScanCommand(),
		DefineWatchCommand(),
		DefineFormatsCommand(),
		DefineComposeCommand(),
		DefineExtractCommand(),
		DefineMountCommand(),
	)
	return rootCmd.Execute()
}

// session holds what every detection command needs: the configuration with
// the command line applied, the engine and the loggers.
type session struct {
	cfg     *config.Config
	engine  *detect.Engine
	log     *slog.Logger
	console *logger.Logger
	closers []io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		console: newConsole(),
	}

	log, logFile, err := logger.Open(cfg.Log.File, logger.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		s.closers = append(s.closers, logFile)
	}
	s.log = log

	s.engine, err = cfg.NewEngine(log)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newConsole() *logger.Logger {
	return logger.New(os.Stdout, slog.LevelInfo)
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

// loadConfig reads --config, then applies the flags of cmd that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if f := flags.Lookup("middleware"); f != nil && f.Changed {
		cfg.Detect.Middleware, _ = flags.GetStringSlice("middleware")
	}
	if f := flags.Lookup("probe"); f != nil && f.Changed {
		cfg.Probe.Mode, _ = flags.GetString("probe")
	}
	if f := flags.Lookup("max-depth"); f != nil && f.Changed {
		cfg.Detect.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if f := flags.Lookup("workers"); f != nil && f.Changed {
		cfg.Scan.Workers, _ = flags.GetInt("workers")
	}
	if f := flags.Lookup("include"); f != nil && f.Changed {
		cfg.Scan.Include, _ = flags.GetStringSlice("include")
	}
	if f := flags.Lookup("exclude"); f != nil && f.Changed {
		cfg.Scan.Exclude, _ = flags.GetStringSlice("exclude")
	}
	if f := flags.Lookup("follow-symlinks"); f != nil && f.Changed {
		cfg.Scan.FollowSymlinks, _ = flags.GetBool("follow-symlinks")
	}
	if f := flags.Lookup("store"); f != nil && f.Changed {
		cfg.Store.Path, _ = flags.GetString("store")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addDetectFlags registers the engine settings that can be changed from the
// command line.
func addDetectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("middleware", nil, "middleware to run (anti_ffc, remux_matroska, pdf_embedded)")
	cmd.Flags().String("probe", "", "how formats without a parser are probed (trace, remux, off)")
	cmd.Flags().Int("max-depth", 0, "maximum number of nested remainders")
}

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/btfind/pkg/bluetooth"
	"github.com/srg/btfind/pkg/config"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether stdin is interactive (can be overridden in tests)
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// stderrIsTerminal gates the progress line (can be overridden in tests)
var stderrIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// configureLogger loads --config and builds a logger honoring --log-level.
// Without --log-level the configured level applies when a config file is
// given; otherwise logging stays silent.
func configureLogger(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		// Default to panic level (essentially silent for normal operations)
		cfg.LogLevel = logrus.PanicLevel
	}

	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		switch logLevelStr {
		case "debug":
			cfg.LogLevel = logrus.DebugLevel
		case "info":
			cfg.LogLevel = logrus.InfoLevel
		case "warn":
			cfg.LogLevel = logrus.WarnLevel
		case "error":
			cfg.LogLevel = logrus.ErrorLevel
		default:
			return nil, nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
	}

	logger := cfg.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	return cfg, logger, nil
}

// newFinder builds a finder from the command's flags.
func newFinder(cmd *cobra.Command) (*bluetooth.Finder, *config.Config, error) {
	cfg, logger, err := configureLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	finder, err := bluetooth.NewDefaultFinder(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return finder, cfg, nil
}

// outputFormat returns the --format flag when set, else the configured format.
func outputFormat(cmd *cobra.Command, cfg *config.Config) (string, error) {
	format := cfg.OutputFormat
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		format = f.Value.String()
	}
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}
}

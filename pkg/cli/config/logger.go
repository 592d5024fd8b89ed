package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Logger configures the process-wide logger. Command output goes to stdout,
// so logs default to stderr.
type Logger struct {
	level      string
	format     string
	output     string
	quiet      bool
	stacktrace bool
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "logging",
			Aliases:     []string{"l"},
			Sources:     cli.EnvVars("NOTIFYME_LOG_LEVEL"),
			Usage:       "Set log level [debug|info|warn|error]",
			Value:       "info",
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Category:    "logging",
			Aliases:     []string{"f"},
			Sources:     cli.EnvVars("NOTIFYME_LOG_FORMAT"),
			Usage:       "Set log format [auto|console|json]",
			Value:       "auto",
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Category:    "logging",
			Aliases:     []string{"o"},
			Sources:     cli.EnvVars("NOTIFYME_LOG_OUTPUT"),
			Usage:       "Set log output [stderr|stdout|<file path>]",
			Value:       "stderr",
			Destination: &x.output,
		},
		&cli.BoolFlag{
			Name:        "log-quiet",
			Category:    "logging",
			Aliases:     []string{"q"},
			Usage:       "Discard all log output",
			Sources:     cli.EnvVars("NOTIFYME_LOG_QUIET"),
			Destination: &x.quiet,
		},
		&cli.BoolFlag{
			Name:        "log-stacktrace",
			Category:    "logging",
			Usage:       "Show error stacktraces in console format",
			Sources:     cli.EnvVars("NOTIFYME_LOG_STACKTRACE"),
			Destination: &x.stacktrace,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("quiet", x.quiet),
	)
}

func (x *Logger) resolveFormat() (logging.Format, error) {
	switch x.format {
	case "console":
		return logging.FormatConsole, nil
	case "json":
		return logging.FormatJSON, nil
	case "", "auto":
		term := os.Getenv("TERM")
		if strings.Contains(term, "color") || strings.Contains(term, "xterm") {
			return logging.FormatConsole, nil
		}
		return logging.FormatJSON, nil
	default:
		return 0, goerr.New("invalid log format", goerr.V("format", x.format))
	}
}

// Configure installs the default logger. The returned closer is never nil
// and releases the log file, if any.
func (x *Logger) Configure() (func(), error) {
	noop := func() {}
	if x.quiet {
		logging.Quiet()
		return noop, nil
	}

	format, err := x.resolveFormat()
	if err != nil {
		return noop, err
	}
	level, ok := logLevels[strings.ToLower(x.level)]
	if !ok {
		return noop, goerr.New("invalid log level", goerr.V("level", x.level))
	}

	var output io.Writer
	closer := noop
	switch x.output {
	case "", "stderr":
		output = os.Stderr
	case "stdout", "-":
		output = os.Stdout
	default:
		f, err := os.OpenFile(filepath.Clean(x.output), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return noop, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		output = f
		closer = func() { safe.Close(context.Background(), f) }
	}

	logging.SetDefault(logging.New(output, level, format, x.stacktrace))
	return closer, nil
}

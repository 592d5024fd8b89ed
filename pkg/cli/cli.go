package cli

import (
	"context"
	"io"
	"os"

	"github.com/secmon-lab/notifyme/pkg/cli/config"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, w io.Writer) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()
	app := &cli.Command{
		Name:   "notifyme",
		Usage:  "Community notice board client",
		Writer: w,
		Flags:  joinFlags(loggerCfg.Flags(), sentryCfg.Flags()),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closeLog, err := loggerCfg.Configure()
			closers = append(closers, closeLog)
			if err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg, "sentry", sentryCfg)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdLogin(),
			cmdRegister(),
			cmdLogout(),
			cmdWhoami(),
			cmdNotice(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

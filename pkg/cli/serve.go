package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	server "github.com/secmon-lab/notifyme/pkg/controller/http"
	websocket_controller "github.com/secmon-lab/notifyme/pkg/controller/websocket"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
		app             appConfig
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("NOTIFYME_ADDR"),
				Usage:       "Listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "shutdown-timeout",
				Sources:     cli.EnvVars("NOTIFYME_SHUTDOWN_TIMEOUT"),
				Usage:       "Time allowed for in-flight requests on SIGINT/SIGTERM",
				Value:       10 * time.Second,
				Destination: &shutdownTimeout,
			},
		},
		app.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the local notice board service",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.From(ctx)
			logger.Info("starting server", "addr", addr, "app", &app)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := app.build(ctx, withConsoleEvents(cmd.Root().Writer))
			if err != nil {
				return err
			}
			defer rt.Close()

			wsHub := websocket_controller.NewHub(ctx)
			defer rt.toasts.Watch(wsHub.PublishToastEvent)()

			httpServer := &http.Server{
				Addr: addr,
				Handler: server.New(rt.sessions, rt.uc,
					server.WithToastQueue(rt.toasts),
					server.WithWebSocketHandler(websocket_controller.NewHandler(wsHub, rt.feed)),
				),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				wsHub.Run()
				return nil
			})
			g.Go(func() error {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "http server failed", goerr.V("addr", addr))
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down server")
				if err := wsHub.Close(); err != nil {
					logger.Error("failed to close WebSocket hub", logging.ErrAttr(err))
				}

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shut down http server")
				}
				return nil
			})

			return g.Wait()
		},
	}
}

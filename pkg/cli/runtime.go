package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/notifyme/pkg/cli/config"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/repository/memory"
	"github.com/secmon-lab/notifyme/pkg/service/feed"
	"github.com/secmon-lab/notifyme/pkg/service/notifier"
	"github.com/secmon-lab/notifyme/pkg/service/session"
	"github.com/secmon-lab/notifyme/pkg/service/toast"
	"github.com/secmon-lab/notifyme/pkg/usecase"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

// appConfig is the flag set shared by every command that needs a session.
type appConfig struct {
	firestore config.Firestore
	identity  config.Identity
	storage   config.Storage
	slack     config.Slack
	seed      config.Seed
}

func (x *appConfig) Flags() []cli.Flag {
	return joinFlags(
		x.firestore.Flags(),
		x.identity.Flags(),
		x.storage.Flags(),
		x.slack.Flags(),
		x.seed.Flags(),
	)
}

func (x *appConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("firestore", x.firestore),
		slog.Any("identity", x.identity),
		slog.Any("storage", &x.storage),
		slog.Any("slack", x.slack),
		slog.Any("seed", x.seed),
	)
}

// runtime is the application scoped set of services. It is created once
// per command and torn down by Close.
type runtime struct {
	repo     interfaces.Repository
	toasts   *toast.Queue
	sessions *session.Store
	uc       *usecase.UseCases
	feed     *feed.Service
	closers  []func()
}

type runtimeOption struct {
	console io.Writer
}

type runtimeOpt func(*runtimeOption)

// withConsoleEvents prints notice events to w.
func withConsoleEvents(w io.Writer) runtimeOpt {
	return func(o *runtimeOption) {
		o.console = w
	}
}

func (x *appConfig) build(ctx context.Context, opts ...runtimeOpt) (*runtime, error) {
	var opt runtimeOption
	for _, f := range opts {
		f(&opt)
	}

	logger := logging.From(ctx)
	logger.Debug("building runtime", "config", x)

	rt := &runtime{toasts: toast.New()}
	rt.closers = append(rt.closers, rt.toasts.Close)

	if x.firestore.IsConfigured() {
		db, err := x.firestore.Configure(ctx)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.repo = db
		rt.closers = append(rt.closers, func() { safe.Close(ctx, db) })
	} else {
		logger.Warn("Firestore is not configured, notices are kept in memory")
		rt.repo = memory.New()
	}

	storage, err := x.storage.Configure()
	if err != nil {
		rt.Close()
		return nil, err
	}

	if !x.identity.IsConfigured() {
		logger.Warn("Firebase API key is not set, accounts are kept in memory")
	}
	provider, closeProvider, err := x.identity.Configure(ctx, x.firestore.ProjectID(), storage)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeProvider)

	if err := x.seed.Configure(ctx, rt.toasts); err != nil {
		rt.Close()
		return nil, err
	}

	var notifiers notifier.Multi
	if opt.console != nil {
		notifiers = append(notifiers, notifier.NewConsoleNotifier(opt.console))
	}
	if slack := x.slack.Configure(); slack != nil {
		notifiers = append(notifiers, slack)
	}

	rt.sessions = session.New(provider, rt.repo, storage, session.WithToastSink(rt.toasts))
	rt.closers = append(rt.closers, rt.sessions.Close)

	rt.uc = usecase.New(
		usecase.WithRepository(rt.repo),
		usecase.WithNotifier(notifiers),
		usecase.WithToastSink(rt.toasts),
	)
	rt.feed = feed.New(rt.repo, feed.WithToastSink(rt.toasts))

	if err := rt.sessions.Start(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	select {
	case <-rt.sessions.Ready():
	case <-ctx.Done():
		rt.Close()
		return nil, ctx.Err()
	}

	return rt, nil
}

// Close releases everything in reverse order of creation.
func (x *runtime) Close() {
	for i := len(x.closers) - 1; i >= 0; i-- {
		x.closers[i]()
	}
	x.closers = nil
}

// printToasts writes every new toast to w until the returned function is
// called.
func (x *runtime) printToasts(w io.Writer) func() {
	return x.toasts.Watch(func(ev toast.Event) {
		if ev.Kind != toast.EventToastAdded {
			return
		}
		for _, t := range ev.Toasts {
			if t.ID == ev.ToastID {
				printToast(w, t)
			}
		}
	})
}

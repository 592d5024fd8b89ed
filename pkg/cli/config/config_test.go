package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/cli/config"
	"github.com/secmon-lab/notifyme/pkg/service/toast"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// parse applies args to the flags of a config group.
func parse(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: func(ctx context.Context, c *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(t.Context(), append([]string{"test"}, args...))).Required()
}

func TestFirestore(t *testing.T) {
	var cfg config.Firestore
	parse(t, cfg.Flags())
	gt.False(t, cfg.IsConfigured())
	gt.Equal(t, cfg.DatabaseID(), "(default)")

	_, err := cfg.Configure(t.Context())
	gt.Error(t, err)
}

func TestIdentity_Memory(t *testing.T) {
	var cfg config.Identity
	parse(t, cfg.Flags())
	gt.False(t, cfg.IsConfigured())

	provider, closer, err := cfg.Configure(t.Context(), "", nil)
	gt.NoError(t, err).Required()
	gt.Value(t, provider).NotNil()
	closer()
}

func TestStorage(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		var cfg config.Storage
		parse(t, cfg.Flags(), "--storage-backend", "memory")
		storage, err := cfg.Configure()
		gt.NoError(t, err).Required()

		gt.NoError(t, storage.Save(t.Context(), "k", []byte("v")))
		data, err := storage.Load(t.Context(), "k")
		gt.NoError(t, err)
		gt.Equal(t, string(data), "v")
	})

	t.Run("file backend", func(t *testing.T) {
		var cfg config.Storage
		parse(t, cfg.Flags(),
			"--storage-backend", "file",
			"--storage-file-dir", t.TempDir(),
			"--storage-file-password", "test-password",
		)
		storage, err := cfg.Configure()
		gt.NoError(t, err).Required()

		data, err := storage.Load(t.Context(), "missing")
		gt.NoError(t, err)
		gt.Equal(t, len(data), 0)
	})

	t.Run("unknown backend", func(t *testing.T) {
		var cfg config.Storage
		parse(t, cfg.Flags(), "--storage-backend", "floppy")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}

func TestSlack(t *testing.T) {
	var cfg config.Slack
	parse(t, cfg.Flags())
	gt.Value(t, cfg.Configure()).Nil()

	parse(t, cfg.Flags(), "--slack-webhook-url", "https://hooks.slack.com/services/T000/B000/XXXX")
	gt.Value(t, cfg.Configure()).NotNil()
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`notifications:
  - title: Maintenance Notice
    description: Water supply will be interrupted tomorrow
    type: warning
    age: 2h
  - title: Security Update
    description: New security cameras installed in parking area
    type: success
    isRead: true
    age: 72h
`), 0600)).Required()

	queue := toast.New()
	t.Cleanup(queue.Close)

	var cfg config.Seed
	parse(t, cfg.Flags(), "--notification-seed", path)
	gt.NoError(t, cfg.Configure(t.Context(), queue)).Required()

	list := queue.Notifications()
	gt.A(t, list).Length(2)
	gt.Equal(t, list[0].Title, "Maintenance Notice")
	gt.Equal(t, queue.UnreadCount(), 1)

	t.Run("missing file", func(t *testing.T) {
		var cfg config.Seed
		parse(t, cfg.Flags(), "--notification-seed", filepath.Join(t.TempDir(), "none.yaml"))
		gt.Error(t, cfg.Configure(t.Context(), queue))
	})

	t.Run("no path", func(t *testing.T) {
		var cfg config.Seed
		gt.NoError(t, cfg.Configure(t.Context(), nil))
	})
}

func TestLogger(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	t.Run("log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notifyme.log")
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-format", "json", "--log-output", path)

		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		logging.Default().Info("feed started")
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.S(t, string(data)).Contains("feed started")
	})

	t.Run("invalid level", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-level", "verbose")
		closer, err := cfg.Configure()
		gt.Error(t, err)
		gt.NotNil(t, closer)
	})

	t.Run("invalid format", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-format", "xml")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}

func TestSentry_Disabled(t *testing.T) {
	var cfg config.Sentry
	parse(t, cfg.Flags())
	flush, err := cfg.Configure()
	gt.NoError(t, err)
	flush()
}

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Seed loads the initial in-app notification list from a YAML file.
type Seed struct {
	path string
}

func (x *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notification-seed",
			Usage:       "YAML file of in-app notifications shown at startup",
			Category:    "Notification",
			Destination: &x.path,
			Sources:     cli.EnvVars("NOTIFYME_NOTIFICATION_SEED"),
		},
	}
}

func (x Seed) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

type NotificationLoader interface {
	LoadNotifications(list notification.Notifications)
}

// Configure loads the seed into loader. Nothing happens without a path.
func (x *Seed) Configure(ctx context.Context, loader NotificationLoader) error {
	if x.path == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(x.path))
	if err != nil {
		return goerr.Wrap(err, "failed to read notification seed", goerr.V("path", x.path))
	}

	list, err := notification.ParseSeed(data, clock.Now(ctx))
	if err != nil {
		return goerr.Wrap(err, "failed to load notification seed", goerr.V("path", x.path))
	}

	loader.LoadNotifications(list)
	logging.From(ctx).Info("notification seed loaded", "path", x.path, "count", len(list))
	return nil
}

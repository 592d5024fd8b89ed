package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/repository/firestore"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Firestore selects the persistent notice store. When no project is given
// the caller falls back to the in-memory repository.
type Firestore struct {
	projectID       string
	databaseID      string
	credentialsFile string
	quotaProject    string
}

func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore project ID. The in-memory store is used when empty",
			Destination: &c.projectID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("NOTIFYME_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.databaseID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("NOTIFYME_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
		},
		&cli.StringFlag{
			Name:        "firestore-credentials",
			Usage:       "Service account key file. Application default credentials are used when empty",
			Destination: &c.credentialsFile,
			Category:    "Firestore",
			Sources:     cli.EnvVars("NOTIFYME_FIRESTORE_CREDENTIALS"),
			TakesFile:   true,
		},
		&cli.StringFlag{
			Name:        "firestore-quota-project",
			Usage:       "Project billed for Firestore API quota",
			Destination: &c.quotaProject,
			Category:    "Firestore",
			Sources:     cli.EnvVars("NOTIFYME_FIRESTORE_QUOTA_PROJECT"),
		},
	}
}

func (c Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", c.projectID),
		slog.String("database_id", c.databaseID),
		slog.Bool("credentials_file", c.credentialsFile != ""),
	)
}

func (c *Firestore) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.credentialsFile))
	}
	if c.quotaProject != "" {
		opts = append(opts, option.WithQuotaProject(c.quotaProject))
	}
	return opts
}

func (c *Firestore) Configure(ctx context.Context) (*firestore.Firestore, error) {
	if c.projectID == "" {
		return nil, goerr.New("firestore-project-id is required")
	}
	return firestore.New(ctx, c.projectID, c.databaseID, c.clientOptions()...)
}

func (c *Firestore) ProjectID() string {
	return c.projectID
}

func (c *Firestore) DatabaseID() string {
	return c.databaseID
}

// ClientOptions are shared with the index migration admin client.
func (c *Firestore) ClientOptions() []option.ClientOption {
	return c.clientOptions()
}

func (c *Firestore) IsConfigured() bool {
	return c.projectID != ""
}

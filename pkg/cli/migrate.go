package cli

import (
	"context"
	"time"

	firestoreadmin "cloud.google.com/go/firestore/apiv1/admin"
	adminpb "cloud.google.com/go/firestore/apiv1/admin/adminpb"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/cli/config"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func cmdMigrate() *cli.Command {
	var cfg config.Firestore
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes and configurations",
		Flags: append(cfg.Flags(),
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Show what would be changed without applying",
				Destination: &dryRun,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return runMigrate(ctx, &cfg, dryRun)
		},
	}
}

func runMigrate(ctx context.Context, cfg *config.Firestore, dryRun bool) error {
	logger := logging.From(ctx)

	projectID := cfg.ProjectID()
	databaseID := cfg.DatabaseID()

	if projectID == "" {
		return goerr.New("firestore-project-id is required")
	}

	logger.Info("Starting Firestore migration",
		"project_id", projectID,
		"database_id", databaseID,
		"dry_run", dryRun,
	)

	indexConfig := defineFirestoreIndexes()

	var opts []fireconf.Option

	opts = append(opts, fireconf.WithLogger(logger))
	if dryRun {
		logger.Info("Dry-run mode: showing planned changes without applying")
		opts = append(opts, fireconf.WithDryRun(true))
	}

	client, err := fireconf.NewClient(ctx, projectID, databaseID, opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to migrate indexes",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
			goerr.V("dry_run", dryRun),
		)
	}

	if !dryRun {
		// fireconf may return before the indexes are usable
		if err := waitForIndexesReady(ctx, projectID, databaseID, indexConfig, logger.With("phase", "wait_ready"), cfg.ClientOptions()...); err != nil {
			return goerr.Wrap(err, "indexes did not become ready",
				goerr.V("project_id", projectID),
				goerr.V("database_id", databaseID),
			)
		}
	}

	logger.Info("Migration completed successfully")
	return nil
}

// waitForIndexesReady polls Firestore Admin API until all managed indexes are READY.
func waitForIndexesReady(ctx context.Context, projectID, databaseID string, cfg *fireconf.Config, logger interface{ Info(string, ...any) }, opts ...option.ClientOption) error {
	adminClient, err := firestoreadmin.NewFirestoreAdminClient(ctx, opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to create firestore admin client")
	}
	defer safe.Close(ctx, adminClient)

	// Collect the collection names we care about.
	var collections []string
	for _, col := range cfg.Collections {
		collections = append(collections, col.Name)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		allReady := true

		for _, collectionName := range collections {
			parent := "projects/" + projectID + "/databases/" + databaseID + "/collectionGroups/" + collectionName

			it := adminClient.ListIndexes(ctx, &adminpb.ListIndexesRequest{Parent: parent})
			for {
				idx, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to list indexes",
						goerr.V("collection", collectionName))
				}

				state := idx.GetState()
				if state == adminpb.Index_CREATING || state == adminpb.Index_NEEDS_REPAIR {
					allReady = false
					logger.Info("Index not yet ready, waiting",
						"collection", collectionName,
						"index", idx.GetName(),
						"state", state.String(),
					)
				}
			}
		}

		if allReady {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// noticeOrderFields are the fields a notice query may order by.
var noticeOrderFields = []string{"timestamp", "createdAt", "updatedAt", "title"}

func defineFirestoreIndexes() *fireconf.Config {
	var indexes []fireconf.Index

	// equality filter on one field ordered by any order field, both directions
	for _, filterField := range []string{"authorId", "category"} {
		for _, orderField := range noticeOrderFields {
			for _, desc := range []bool{false, true} {
				order := fireconf.OrderAscending
				if desc {
					order = fireconf.OrderDescending
				}
				indexes = append(indexes, fireconf.Index{
					QueryScope: fireconf.QueryScopeCollection,
					Fields: []fireconf.IndexField{
						{Path: filterField, Order: fireconf.OrderAscending},
						{Path: orderField, Order: order},
					},
				})
			}
		}
	}

	// author and category together with the default ordering
	indexes = append(indexes, fireconf.Index{
		QueryScope: fireconf.QueryScopeCollection,
		Fields: []fireconf.IndexField{
			{Path: "authorId", Order: fireconf.OrderAscending},
			{Path: "category", Order: fireconf.OrderAscending},
			{Path: "timestamp", Order: fireconf.OrderDescending},
		},
	})

	// organization dashboard: unassigned or assigned to one org, newest first
	indexes = append(indexes, fireconf.Index{
		QueryScope: fireconf.QueryScopeCollection,
		Fields: []fireconf.IndexField{
			{Path: "assignedOrg", Order: fireconf.OrderAscending},
			{Path: "createdAt", Order: fireconf.OrderDescending},
		},
	})

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name:    "notices",
				Indexes: indexes,
			},
		},
	}
}

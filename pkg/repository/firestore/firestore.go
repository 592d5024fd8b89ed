package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"google.golang.org/api/option"
)

// Firestore stores notices keyed by notice ID and user profiles keyed by
// Firebase uid.
type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.Repository = &Firestore{}

const (
	collectionUsers   = "users"
	collectionNotices = "notices"
)

// New connects to databaseID in projectID. An empty databaseID selects the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is empty", goerr.T(errs.TagValidation))
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.T(errs.TagDatabase),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(
			goerr.TV(errutil.RepositoryKey, "firestore"),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		),
	}, nil
}

func (r *Firestore) Close() error {
	return r.db.Close()
}

func (r *Firestore) notices() *firestore.CollectionRef {
	return r.db.Collection(collectionNotices)
}

func (r *Firestore) users() *firestore.CollectionRef {
	return r.db.Collection(collectionUsers)
}

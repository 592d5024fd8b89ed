package firestore

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (r *Firestore) GetProfile(ctx context.Context, uid types.UserID) (*session.Profile, error) {
	if uid == types.EmptyUserID {
		return nil, r.eb.New("uid is empty", goerr.T(errs.TagValidation))
	}

	doc, err := r.users().Doc(uid.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("profile not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, uid))
		}
		return nil, r.eb.Wrap(err, "failed to get profile", goerr.T(errs.TagDatabase), goerr.TV(errutil.UserIDKey, uid))
	}

	var profile session.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode profile", goerr.TV(errutil.UserIDKey, uid))
	}
	if profile.UID == types.EmptyUserID {
		profile.UID = uid
	}

	return &profile, nil
}

func (r *Firestore) PutProfile(ctx context.Context, profile session.Profile) error {
	if err := profile.Validate(); err != nil {
		return r.eb.Wrap(err, "invalid profile", goerr.T(errs.TagValidation))
	}

	if _, err := r.users().Doc(profile.UID.String()).Set(ctx, profile); err != nil {
		return r.eb.Wrap(err, "failed to put profile", goerr.T(errs.TagDatabase), goerr.TV(errutil.UserIDKey, profile.UID))
	}

	return nil
}

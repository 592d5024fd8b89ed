package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
)

func (r *Memory) GetProfile(ctx context.Context, uid types.UserID) (*session.Profile, error) {
	r.incrementCallCount("GetProfile")

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[uid]
	if !ok {
		return nil, r.eb.New("profile not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.UserIDKey, uid))
	}

	copied := *p
	return &copied, nil
}

func (r *Memory) PutProfile(ctx context.Context, profile session.Profile) error {
	r.incrementCallCount("PutProfile")

	if err := profile.Validate(); err != nil {
		return r.eb.Wrap(err, "invalid profile", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.UID] = &profile
	return nil
}

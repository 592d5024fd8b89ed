package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// serverTime stands in for the store-assigned timestamp.
func serverTime(ctx context.Context) *timestamppb.Timestamp {
	return timestamppb.New(clock.Now(ctx))
}

func (r *Memory) CreateNotice(ctx context.Context, n *notice.Notice) (*notice.Notice, error) {
	r.incrementCallCount("CreateNotice")

	if err := n.ID.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid notice", goerr.T(errs.TagValidation))
	}

	rec := notice.NewRecord(n)
	now := serverTime(ctx)
	rec["timestamp"] = now
	rec["createdAt"] = now
	rec["updatedAt"] = now

	r.mu.Lock()
	if _, exists := r.notices[n.ID]; exists {
		r.mu.Unlock()
		return nil, r.eb.New("notice already exists", goerr.T(errs.TagConflict), goerr.TV(errutil.NoticeIDKey, n.ID))
	}
	r.notices[n.ID] = rec
	r.mu.Unlock()

	r.notifyWatchers()
	return r.getNotice(n.ID)
}

func (r *Memory) GetNotice(ctx context.Context, id types.NoticeID) (*notice.Notice, error) {
	r.incrementCallCount("GetNotice")
	return r.getNotice(id)
}

func (r *Memory) getNotice(id types.NoticeID) (*notice.Notice, error) {
	r.mu.RLock()
	rec, ok := r.notices[id]
	r.mu.RUnlock()

	if !ok {
		return nil, r.eb.New("notice not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.NoticeIDKey, id))
	}

	n, err := rec.Normalize(id)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to decode notice", goerr.TV(errutil.NoticeIDKey, id))
	}
	return n, nil
}

// update applies fn to a copy of the stored record under the write lock.
func (r *Memory) update(id types.NoticeID, fn func(rec notice.Record) (bool, error)) error {
	r.mu.Lock()
	rec, ok := r.notices[id]
	if !ok {
		r.mu.Unlock()
		return r.eb.New("notice not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.NoticeIDKey, id))
	}

	copied := maps.Clone(rec)
	changed, err := fn(copied)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if changed {
		r.notices[id] = copied
	}
	r.mu.Unlock()

	if changed {
		r.notifyWatchers()
	}
	return nil
}

func (r *Memory) AssignNotice(ctx context.Context, id types.NoticeID, orgName string) (*notice.Notice, error) {
	r.incrementCallCount("AssignNotice")

	if orgName == "" {
		return nil, r.eb.New("organization name is empty", goerr.T(errs.TagValidation), goerr.TV(errutil.NoticeIDKey, id))
	}

	err := r.update(id, func(rec notice.Record) (bool, error) {
		if current, _ := rec["assignedOrg"].(string); current != "" {
			if current == orgName {
				return false, nil
			}
			return false, r.eb.New("notice already assigned",
				goerr.T(errs.TagConflict),
				goerr.TV(errutil.NoticeIDKey, id),
				goerr.TV(errutil.OrgKey, current),
			)
		}

		now := serverTime(ctx)
		rec["assignedOrg"] = orgName
		rec["status"] = types.NoticeStatusOngoing.String()
		rec["updatedAt"] = now
		rec["statusUpdatedAt"] = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return r.getNotice(id)
}

func (r *Memory) UpdateNoticeStatus(ctx context.Context, id types.NoticeID, st types.NoticeStatus) (*notice.Notice, error) {
	r.incrementCallCount("UpdateNoticeStatus")

	if err := st.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid status", goerr.T(errs.TagValidation), goerr.TV(errutil.StatusKey, st))
	}

	err := r.update(id, func(rec notice.Record) (bool, error) {
		now := serverTime(ctx)
		rec["status"] = st.String()
		rec["updatedAt"] = now
		rec["statusUpdatedAt"] = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return r.getNotice(id)
}

// query evaluates q against the current records.
func (r *Memory) query(q notice.Query) (notice.Notices, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result notice.Notices
	for _, id := range slices.Sorted(maps.Keys(r.notices)) {
		n, err := r.notices[id].Normalize(id)
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to decode notice", goerr.TV(errutil.NoticeIDKey, id))
		}
		if q.Match(n) {
			result = append(result, n)
		}
	}

	q.Sort(result)
	return result, nil
}

func (r *Memory) ListNotices(ctx context.Context, q notice.Query) (notice.Notices, error) {
	r.incrementCallCount("ListNotices")

	if err := q.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid notice query", goerr.T(errs.TagValidation))
	}
	return r.query(q)
}

func (r *Memory) ListOrgNotices(ctx context.Context, orgName string) (notice.Notices, error) {
	r.incrementCallCount("ListOrgNotices")

	all, err := r.query(notice.Query{OrderByField: "createdAt", OrderDirection: types.SortDesc})
	if err != nil {
		return nil, err
	}

	var result notice.Notices
	for _, n := range all {
		if !n.IsAssigned() || (orgName != "" && n.AssignedOrg == orgName) {
			result = append(result, n)
		}
	}
	return result, nil
}

// PutRecord stores a raw document as is, bypassing encoding. Records that
// do not decode make queries and watchers fail.
func (r *Memory) PutRecord(id types.NoticeID, rec notice.Record) {
	r.mu.Lock()
	r.notices[id] = rec
	r.mu.Unlock()

	r.notifyWatchers()
}

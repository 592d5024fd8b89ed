package firestore

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (r *Firestore) noticeRef(id types.NoticeID) *firestore.DocumentRef {
	return r.notices().Doc(id.String())
}

func (r *Firestore) CreateNotice(ctx context.Context, n *notice.Notice) (*notice.Notice, error) {
	if err := n.ID.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid notice", goerr.T(errs.TagValidation))
	}

	rec := notice.NewRecord(n)
	rec["timestamp"] = firestore.ServerTimestamp
	rec["createdAt"] = firestore.ServerTimestamp
	rec["updatedAt"] = firestore.ServerTimestamp
	// explicit nulls so that unassigned notices match equality queries
	if n.AssignedOrg == "" {
		rec["assignedOrg"] = nil
	}
	if n.Tag == "" {
		rec["tag"] = nil
	}

	if _, err := r.noticeRef(n.ID).Create(ctx, map[string]any(rec)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, r.eb.Wrap(err, "notice already exists", goerr.T(errs.TagConflict), goerr.TV(errutil.NoticeIDKey, n.ID))
		}
		return nil, r.eb.Wrap(err, "failed to create notice", goerr.T(errs.TagDatabase), goerr.TV(errutil.NoticeIDKey, n.ID))
	}

	return r.GetNotice(ctx, n.ID)
}

func (r *Firestore) GetNotice(ctx context.Context, id types.NoticeID) (*notice.Notice, error) {
	if err := id.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid notice ID", goerr.T(errs.TagValidation))
	}

	doc, err := r.noticeRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("notice not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.NoticeIDKey, id))
		}
		return nil, r.eb.Wrap(err, "failed to get notice", goerr.T(errs.TagDatabase), goerr.TV(errutil.NoticeIDKey, id))
	}

	return r.decodeNotice(doc)
}

func (r *Firestore) decodeNotice(doc *firestore.DocumentSnapshot) (*notice.Notice, error) {
	n, err := notice.Record(doc.Data()).Normalize(types.NoticeID(doc.Ref.ID))
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to decode notice", goerr.TV(errutil.NoticeIDKey, types.NoticeID(doc.Ref.ID)))
	}
	return n, nil
}

func (r *Firestore) decodeNotices(iter *firestore.DocumentIterator) (notice.Notices, error) {
	defer iter.Stop()

	var notices notice.Notices
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to iterate notices", goerr.T(errs.TagDatabase))
		}

		n, err := r.decodeNotice(doc)
		if err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, nil
}

func (r *Firestore) AssignNotice(ctx context.Context, id types.NoticeID, orgName string) (*notice.Notice, error) {
	if orgName == "" {
		return nil, r.eb.New("organization name is empty", goerr.T(errs.TagValidation), goerr.TV(errutil.NoticeIDKey, id))
	}
	ref := r.noticeRef(id)

	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return r.eb.New("notice not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.NoticeIDKey, id))
			}
			return r.eb.Wrap(err, "failed to get notice in transaction", goerr.TV(errutil.NoticeIDKey, id))
		}

		if current, _ := snap.Data()["assignedOrg"].(string); current != "" {
			if current == orgName {
				return nil
			}
			return r.eb.New("notice already assigned",
				goerr.T(errs.TagConflict),
				goerr.TV(errutil.NoticeIDKey, id),
				goerr.TV(errutil.OrgKey, current),
			)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "assignedOrg", Value: orgName},
			{Path: "status", Value: types.NoticeStatusOngoing.String()},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
			{Path: "statusUpdatedAt", Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to assign notice", goerr.TV(errutil.NoticeIDKey, id), goerr.TV(errutil.OrgKey, orgName))
	}

	return r.GetNotice(ctx, id)
}

func (r *Firestore) UpdateNoticeStatus(ctx context.Context, id types.NoticeID, st types.NoticeStatus) (*notice.Notice, error) {
	if err := st.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid status", goerr.T(errs.TagValidation), goerr.TV(errutil.StatusKey, st))
	}

	_, err := r.noticeRef(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: st.String()},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
		{Path: "statusUpdatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("notice not found", goerr.T(errs.TagNotFound), goerr.TV(errutil.NoticeIDKey, id))
		}
		return nil, r.eb.Wrap(err, "failed to update notice status", goerr.T(errs.TagDatabase), goerr.TV(errutil.NoticeIDKey, id))
	}

	return r.GetNotice(ctx, id)
}

func (r *Firestore) noticeQuery(q notice.Query) (firestore.Query, error) {
	if err := q.Validate(); err != nil {
		return firestore.Query{}, r.eb.Wrap(err, "invalid notice query", goerr.T(errs.TagValidation))
	}
	q = q.WithDefaults()

	query := r.notices().Query
	if q.AuthorID != "" {
		query = query.Where("authorId", "==", q.AuthorID.String())
	}
	if q.Category != "" {
		query = query.Where("category", "==", q.Category.String())
	}

	dir := firestore.Desc
	if q.OrderDirection == types.SortAsc {
		dir = firestore.Asc
	}
	return query.OrderBy(q.OrderByField, dir), nil
}

func (r *Firestore) ListNotices(ctx context.Context, q notice.Query) (notice.Notices, error) {
	query, err := r.noticeQuery(q)
	if err != nil {
		return nil, err
	}
	return r.decodeNotices(query.Documents(ctx))
}

func (r *Firestore) ListOrgNotices(ctx context.Context, orgName string) (notice.Notices, error) {
	col := r.notices()

	unassigned, err := r.decodeNotices(col.Where("assignedOrg", "==", nil).OrderBy("createdAt", firestore.Desc).Documents(ctx))
	if err != nil {
		return nil, err
	}

	result := unassigned
	if orgName != "" {
		assigned, err := r.decodeNotices(col.Where("assignedOrg", "==", orgName).OrderBy("createdAt", firestore.Desc).Documents(ctx))
		if err != nil {
			return nil, err
		}
		result = append(result, assigned...)
	}

	slices.SortStableFunc(result, func(a, b *notice.Notice) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// NoticeHandler receives every change of a watched notice query. notices is
// the full result in server order; err is set when delivery failed, after
// which no further calls are made.
type NoticeHandler func(notices notice.Notices, err error)

type Repository interface {
	// Profiles stored in users/{uid}
	GetProfile(ctx context.Context, uid types.UserID) (*session.Profile, error)
	PutProfile(ctx context.Context, profile session.Profile) error

	// CreateNotice stores n with store-assigned timestamp, createdAt and
	// updatedAt and returns the stored document.
	CreateNotice(ctx context.Context, n *notice.Notice) (*notice.Notice, error)
	GetNotice(ctx context.Context, id types.NoticeID) (*notice.Notice, error)
	// AssignNotice claims the notice for orgName and moves it to ongoing.
	// The first claim wins; a later claim fails with TagConflict.
	AssignNotice(ctx context.Context, id types.NoticeID, orgName string) (*notice.Notice, error)
	UpdateNoticeStatus(ctx context.Context, id types.NoticeID, status types.NoticeStatus) (*notice.Notice, error)
	ListNotices(ctx context.Context, query notice.Query) (notice.Notices, error)
	// ListOrgNotices returns unassigned notices and those assigned to
	// orgName, newest first.
	ListOrgNotices(ctx context.Context, orgName string) (notice.Notices, error)

	// WatchNotices delivers the query result now and on every change until
	// the returned function is called or ctx is done.
	WatchNotices(ctx context.Context, query notice.Query, handler NoticeHandler) (func(), error)
}

package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/event"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

var (
	ErrLoginRequired = goerr.New("login required", goerr.T(errs.TagUnauthorized))
	ErrOrgRequired   = goerr.New("organization role required", goerr.T(errs.TagForbidden))
)

func (u *UseCases) toast(msg string, typ types.MessageType) {
	if u.toasts != nil {
		u.toasts.EnqueueToast(notification.ToastInput{Message: msg, Type: typ})
	}
}

// fail reports a repository failure: the error is logged, the user gets msg
// as a toast and the notifier gets an error event.
func (u *UseCases) fail(ctx context.Context, err error, msg string) {
	errs.Handle(ctx, err)
	u.toast(msg, types.MessageError)
	u.notifier.NotifyError(ctx, &event.ErrorEvent{Error: err, Message: msg})
}

// SubmitNotice validates form and stores it as a pending notice authored
// by the session user. No repository call is made when validation fails.
func (u *UseCases) SubmitNotice(ctx context.Context, s session.Session, form notice.Form) (*notice.Notice, error) {
	if err := form.Validate().Err(); err != nil {
		u.toast(notification.MsgFixFormErrors, types.MessageError)
		return nil, err
	}

	if !s.IsAuthenticated() {
		u.toast(notification.MsgLoginRequired, types.MessageError)
		return nil, ErrLoginRequired
	}

	n := form.NewNotice(notice.Author{ID: s.User.ID, Name: s.User.Name})
	created, err := u.repository.CreateNotice(ctx, n)
	if err != nil {
		err = goerr.Wrap(err, "failed to submit notice", goerr.TV(errutil.UserIDKey, s.User.ID))
		u.fail(ctx, err, notification.MsgNoticeFailed)
		return nil, err
	}

	logging.From(ctx).Info("notice submitted",
		slog.String("notice_id", created.ID.String()),
		slog.String("category", string(created.Category)))

	u.toast(notification.MsgNoticeSubmitted, types.MessageSuccess)
	u.notifier.NotifyNoticeCreated(ctx, &event.NoticeCreatedEvent{Notice: created})
	return created, nil
}

func requireOrg(s session.Session) error {
	if !s.IsAuthenticated() {
		return ErrLoginRequired
	}
	if s.Role != types.RoleOrg || s.OrgName == "" {
		return goerr.Wrap(ErrOrgRequired, "not an organization", goerr.TV(errutil.RoleKey, s.Role))
	}
	return nil
}

// AssignNotice claims the notice for the session's organization. Claiming a
// notice the organization already holds returns it unchanged.
func (u *UseCases) AssignNotice(ctx context.Context, s session.Session, id types.NoticeID) (*notice.Notice, error) {
	if err := requireOrg(s); err != nil {
		return nil, err
	}

	assigned, err := u.repository.AssignNotice(ctx, id, s.OrgName)
	if err != nil {
		err = goerr.Wrap(err, "failed to assign notice",
			goerr.TV(errutil.NoticeIDKey, id),
			goerr.TV(errutil.OrgKey, s.OrgName))
		if goerr.HasTag(err, errs.TagConflict) || errs.IsNotFound(err) {
			u.toast(notification.MsgAssignFailed, types.MessageError)
			return nil, err
		}
		u.fail(ctx, err, notification.MsgAssignFailed)
		return nil, err
	}

	u.toast(notification.MsgNoticeAssigned, types.MessageSuccess)
	u.notifier.NotifyNoticeAssigned(ctx, &event.NoticeAssignedEvent{Notice: assigned, OrgName: s.OrgName})
	return assigned, nil
}

// UpdateNoticeStatus moves a notice assigned to the session's organization
// forward along pending, ongoing and completed. Regressions are rejected.
func (u *UseCases) UpdateNoticeStatus(ctx context.Context, s session.Session, id types.NoticeID, status types.NoticeStatus) (*notice.Notice, error) {
	if err := requireOrg(s); err != nil {
		return nil, err
	}
	if err := status.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid status", goerr.T(errs.TagValidation), goerr.TV(errutil.StatusKey, status))
	}

	current, err := u.repository.GetNotice(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get notice", goerr.TV(errutil.NoticeIDKey, id))
	}
	if current.AssignedOrg != s.OrgName {
		return nil, goerr.New("notice is not assigned to the organization",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.NoticeIDKey, id),
			goerr.TV(errutil.OrgKey, s.OrgName))
	}

	from := current.EffectiveStatus()
	if !from.CanAdvanceTo(status) {
		return nil, goerr.New("notice status cannot move backwards",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.NoticeIDKey, id),
			goerr.V("from", from),
			goerr.TV(errutil.StatusKey, status))
	}

	updated, err := u.repository.UpdateNoticeStatus(ctx, id, status)
	if err != nil {
		err = goerr.Wrap(err, "failed to update notice status",
			goerr.TV(errutil.NoticeIDKey, id),
			goerr.TV(errutil.StatusKey, status))
		u.fail(ctx, err, notification.MsgStatusFailed)
		return nil, err
	}

	u.toast(notification.MsgStatusUpdated, types.MessageSuccess)
	if from != status {
		u.notifier.NotifyNoticeStatusChanged(ctx, &event.NoticeStatusChangedEvent{Notice: updated, From: from, To: status})
	}
	return updated, nil
}

// GetNotice returns a notice to any signed-in user.
func (u *UseCases) GetNotice(ctx context.Context, s session.Session, id types.NoticeID) (*notice.Notice, error) {
	if !s.IsAuthenticated() {
		return nil, ErrLoginRequired
	}
	n, err := u.repository.GetNotice(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get notice", goerr.TV(errutil.NoticeIDKey, id))
	}
	return n, nil
}

// ListNotices returns the notices matching q, then applies the view
// filter.
func (u *UseCases) ListNotices(ctx context.Context, q notice.Query, view notice.FilterOptions) (notice.Notices, error) {
	if err := q.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid notice query", goerr.T(errs.TagValidation))
	}
	if err := view.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid filter options", goerr.T(errs.TagValidation))
	}

	notices, err := u.repository.ListNotices(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notices")
	}
	return view.Apply(notices), nil
}

// ListMyNotices returns the notices authored by the session user.
func (u *UseCases) ListMyNotices(ctx context.Context, s session.Session) (notice.Notices, error) {
	if !s.IsAuthenticated() {
		return nil, ErrLoginRequired
	}
	notices, err := u.repository.ListNotices(ctx, notice.Query{AuthorID: s.User.ID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notices", goerr.TV(errutil.UserIDKey, s.User.ID))
	}
	return notices, nil
}

// ListOrgNotices returns the unassigned notices and those held by the
// session's organization, newest first.
func (u *UseCases) ListOrgNotices(ctx context.Context, s session.Session) (notice.Notices, error) {
	if err := requireOrg(s); err != nil {
		return nil, err
	}
	notices, err := u.repository.ListOrgNotices(ctx, s.OrgName)
	if err != nil {
		err = goerr.Wrap(err, "failed to list organization notices", goerr.TV(errutil.OrgKey, s.OrgName))
		u.fail(ctx, err, notification.MsgNoticeLoadFailed)
		return nil, err
	}
	return notices, nil
}

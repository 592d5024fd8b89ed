package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	websocket_controller "github.com/secmon-lab/notifyme/pkg/controller/websocket"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// SessionStore is the application scoped session owner.
type SessionStore interface {
	Session() session.Session
	Login(ctx context.Context, cred session.Credentials) (*session.Session, error)
	Register(ctx context.Context, form session.RegisterForm) (*session.Session, error)
	Logout(ctx context.Context)
}

// UseCase is the notice workflow.
type UseCase interface {
	SubmitNotice(ctx context.Context, s session.Session, form notice.Form) (*notice.Notice, error)
	AssignNotice(ctx context.Context, s session.Session, id types.NoticeID) (*notice.Notice, error)
	UpdateNoticeStatus(ctx context.Context, s session.Session, id types.NoticeID, status types.NoticeStatus) (*notice.Notice, error)
	GetNotice(ctx context.Context, s session.Session, id types.NoticeID) (*notice.Notice, error)
	ListNotices(ctx context.Context, q notice.Query, view notice.FilterOptions) (notice.Notices, error)
	ListMyNotices(ctx context.Context, s session.Session) (notice.Notices, error)
	ListOrgNotices(ctx context.Context, s session.Session) (notice.Notices, error)
}

// ToastQueue exposes toasts and in-app notifications.
type ToastQueue interface {
	Toasts() []notification.Toast
	DismissToast(id types.ToastID)
	Notifications() notification.Notifications
	UnreadCount() int
	MarkRead(id types.NotificationID)
	MarkAllRead()
}

type Server struct {
	router        *chi.Mux
	sessions      SessionStore
	uc            UseCase
	toasts        ToastQueue
	websocketCtrl *websocket_controller.Handler
}

type Options func(*Server)

func WithToastQueue(toasts ToastQueue) Options {
	return func(s *Server) {
		s.toasts = toasts
	}
}

func WithWebSocketHandler(handler *websocket_controller.Handler) Options {
	return func(s *Server) {
		s.websocketCtrl = handler
	}
}

func New(sessions SessionStore, uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		sessions: sessions,
		uc:       uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	// Public pages
	r.Get(types.PathHome, s.pageHandler("home"))
	r.Get(types.PathAbout, s.pageHandler("about"))
	r.Get(types.PathContact, s.pageHandler("contact"))
	r.Get(types.PathFAQs, s.pageHandler("faqs"))
	r.Group(func(r chi.Router) {
		r.Use(publicOnly(sessions))
		r.Get(types.PathLogin, s.pageHandler("login"))
		r.Get(types.PathRegister, s.pageHandler("register"))
	})

	// Role gated pages
	r.With(requireRole(sessions, types.RoleNone)).Get(types.PathDashboard, s.dashboardHandler)
	r.With(requireRole(sessions, types.RoleCitizen)).Get(types.PathUserDashboard, s.userDashboardHandler)
	r.With(requireRole(sessions, types.RoleOrg)).Get(types.PathAdminDashboard, s.adminDashboardHandler)
	r.With(requireRole(sessions, types.RoleWarden)).Get(types.PathWardenPanel, s.wardenPanelHandler)

	// Feature pages
	r.With(requireRole(sessions, types.RoleOrg)).Get(types.PathPostNotice, s.pageHandler("post-notice"))
	r.With(requireRole(sessions, types.RoleNone)).Get(types.PathMyReports, s.myReportsHandler)
	r.With(requireRole(sessions, types.RoleNone)).Get(types.PathNotice, s.noticePageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.authLoginHandler)
			r.Post("/register", s.authRegisterHandler)
			r.Post("/logout", s.authLogoutHandler)
			r.Get("/me", s.authMeHandler)
		})

		r.Route("/notices", func(r chi.Router) {
			r.Get("/", s.listNoticesHandler)
			r.Post("/", s.submitNoticeHandler)
			r.Get("/{noticeID}", s.getNoticeHandler)
			r.Post("/{noticeID}/assign", s.assignNoticeHandler)
			r.Post("/{noticeID}/status", s.updateStatusHandler)
		})
		r.Get("/org/notices", s.orgNoticesHandler)

		if s.toasts != nil {
			r.Get("/notifications", s.notificationsHandler)
			r.Post("/notifications/read-all", s.markAllReadHandler)
			r.Post("/notifications/{notificationID}/read", s.markReadHandler)
			r.Get("/toasts", s.toastsHandler)
			r.Delete("/toasts/{toastID}", s.dismissToastHandler)
		}
	})

	if s.websocketCtrl != nil {
		r.Route("/ws", func(r chi.Router) {
			r.Use(requireRole(sessions, types.RoleNone))
			r.Get("/notices", s.websocketCtrl.HandleNotices)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusNotFound, "not-found", nil)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Warn("failed to write response", logging.ErrAttr(err))
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest))
	}
	return nil
}

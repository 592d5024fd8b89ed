package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

type notificationsResponse struct {
	Notifications notification.Notifications `json:"notifications"`
	UnreadCount   int                        `json:"unreadCount"`
}

func (s *Server) notificationsResponse() notificationsResponse {
	return notificationsResponse{
		Notifications: s.toasts.Notifications(),
		UnreadCount:   s.toasts.UnreadCount(),
	}
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.notificationsResponse())
}

func (s *Server) markReadHandler(w http.ResponseWriter, r *http.Request) {
	s.toasts.MarkRead(types.NotificationID(chi.URLParam(r, "notificationID")))
	writeJSON(w, r, http.StatusOK, s.notificationsResponse())
}

func (s *Server) markAllReadHandler(w http.ResponseWriter, r *http.Request) {
	s.toasts.MarkAllRead()
	writeJSON(w, r, http.StatusOK, s.notificationsResponse())
}

type toastsResponse struct {
	Toasts []notification.Toast `json:"toasts"`
}

func (s *Server) toastsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toastsResponse{Toasts: s.toasts.Toasts()})
}

func (s *Server) dismissToastHandler(w http.ResponseWriter, r *http.Request) {
	s.toasts.DismissToast(types.ToastID(chi.URLParam(r, "toastID")))
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/notifyme/pkg/domain/model/access"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// pageView describes what the UI renders for a route.
type pageView struct {
	View    string           `json:"view"`
	Path    string           `json:"path"`
	Session session.Snapshot `json:"session"`
	Data    any              `json:"data,omitempty"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view string, data any) {
	writeJSON(w, r, status, pageView{
		View:    view,
		Path:    r.URL.Path,
		Session: s.sessions.Session().Snapshot(),
		Data:    data,
	})
}

func (s *Server) pageHandler(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, view, nil)
	}
}

// dashboardHandler renders the dashboard of the session's role.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	switch access.DashboardFor(s.sessions.Session().Role) {
	case types.PathAdminDashboard:
		s.adminDashboardHandler(w, r)
	case types.PathWardenPanel:
		s.wardenPanelHandler(w, r)
	default:
		s.userDashboardHandler(w, r)
	}
}

type noticesData struct {
	Notices notice.Notices `json:"notices"`
}

func (s *Server) userDashboardHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := s.uc.ListNotices(r.Context(), notice.Query{}, notice.DefaultFilterOptions())
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, viewName(types.PathUserDashboard), noticesData{Notices: notices})
}

func (s *Server) adminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := s.uc.ListOrgNotices(r.Context(), s.sessions.Session())
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, viewName(types.PathAdminDashboard), noticesData{Notices: notices})
}

func (s *Server) wardenPanelHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := s.uc.ListNotices(r.Context(), notice.Query{}, notice.DefaultFilterOptions())
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, viewName(types.PathWardenPanel), noticesData{Notices: notices})
}

func (s *Server) myReportsHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := s.uc.ListMyNotices(r.Context(), s.sessions.Session())
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "my-reports", noticesData{Notices: notices})
}

func (s *Server) noticePageHandler(w http.ResponseWriter, r *http.Request) {
	id := types.NoticeID(chi.URLParam(r, "id"))
	n, err := s.uc.GetNotice(r.Context(), s.sessions.Session(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "notice", n)
}

// viewName derives the view name from a dashboard path.
func viewName(path string) string {
	return strings.TrimPrefix(path, "/")
}

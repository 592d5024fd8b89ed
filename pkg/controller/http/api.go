package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/access"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

type sessionResponse struct {
	Session   session.Snapshot `json:"session"`
	Dashboard string           `json:"dashboard,omitempty"`
}

func (s *Server) sessionResponse() sessionResponse {
	current := s.sessions.Session()
	resp := sessionResponse{Session: current.Snapshot()}
	if current.IsAuthenticated() {
		resp.Dashboard = access.DashboardFor(current.Role)
	}
	return resp
}

func (s *Server) authLoginHandler(w http.ResponseWriter, r *http.Request) {
	var cred session.Credentials
	if err := decodeJSON(r, &cred); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := s.sessions.Login(r.Context(), cred); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.sessionResponse())
}

func (s *Server) authRegisterHandler(w http.ResponseWriter, r *http.Request) {
	var form session.RegisterForm
	if err := decodeJSON(r, &form); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := s.sessions.Register(r.Context(), form); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, s.sessionResponse())
}

func (s *Server) authLogoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	writeJSON(w, r, http.StatusOK, s.sessionResponse())
}

func (s *Server) authMeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.sessionResponse())
}

// parseListQuery reads the store query and the view filter from the URL:
// authorId, category, orderBy, direction, tags (comma separated), sortBy
// and showPinned.
func parseListQuery(r *http.Request) (notice.Query, notice.FilterOptions, error) {
	values := r.URL.Query()
	q := notice.Query{
		AuthorID:       types.UserID(values.Get("authorId")),
		Category:       types.Category(values.Get("category")),
		OrderByField:   values.Get("orderBy"),
		OrderDirection: types.SortDirection(values.Get("direction")),
	}

	view := notice.DefaultFilterOptions()
	if tags := values.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				view.Tags = append(view.Tags, tag)
			}
		}
	}
	if sortBy := values.Get("sortBy"); sortBy != "" {
		view.SortBy = notice.SortBy(sortBy)
	}
	switch values.Get("showPinned") {
	case "", "true", "1":
	case "false", "0":
		view.ShowPinned = false
	default:
		return q, view, goerr.New("invalid showPinned", goerr.T(errs.TagInvalidRequest), goerr.V("showPinned", values.Get("showPinned")))
	}
	return q, view, nil
}

func (s *Server) listNoticesHandler(w http.ResponseWriter, r *http.Request) {
	q, view, err := parseListQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	notices, err := s.uc.ListNotices(r.Context(), q, view)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, noticesData{Notices: notices})
}

func (s *Server) submitNoticeHandler(w http.ResponseWriter, r *http.Request) {
	var form notice.Form
	if err := decodeJSON(r, &form); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.uc.SubmitNotice(r.Context(), s.sessions.Session(), form)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) getNoticeHandler(w http.ResponseWriter, r *http.Request) {
	id := types.NoticeID(chi.URLParam(r, "noticeID"))
	n, err := s.uc.GetNotice(r.Context(), s.sessions.Session(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}

func (s *Server) assignNoticeHandler(w http.ResponseWriter, r *http.Request) {
	id := types.NoticeID(chi.URLParam(r, "noticeID"))
	n, err := s.uc.AssignNotice(r.Context(), s.sessions.Session(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}

type statusRequest struct {
	Status types.NoticeStatus `json:"status"`
}

func (s *Server) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	id := types.NoticeID(chi.URLParam(r, "noticeID"))
	n, err := s.uc.UpdateNoticeStatus(r.Context(), s.sessions.Session(), id, req.Status)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}

func (s *Server) orgNoticesHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := s.uc.ListOrgNotices(r.Context(), s.sessions.Session())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, noticesData{Notices: notices})
}

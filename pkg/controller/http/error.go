package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Kind   errs.AuthKind     `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())
	resp := errorResponse{Error: err.Error()}

	switch {
	case goerr.HasTag(err, errs.TagValidation), goerr.HasTag(err, errs.TagInvalidRequest):
		logger.Warn("Bad Request", "error", err)
		if v := errs.ValidationErrorsOf(err); len(v) > 0 {
			resp.Fields = make(map[string]string, len(v))
			for _, e := range v {
				if _, ok := resp.Fields[e.Field]; !ok {
					resp.Fields[e.Field] = e.Message
				}
			}
		}
		writeJSON(w, r, http.StatusBadRequest, resp)

	case goerr.HasTag(err, errs.TagAuth):
		kind, _ := errs.AuthKindOf(err)
		resp.Kind = kind
		resp.Error = kind.Message()
		status := http.StatusUnauthorized
		switch kind {
		case errs.AuthEmailInUse:
			status = http.StatusConflict
		case errs.AuthWeakPassword:
			status = http.StatusBadRequest
		case errs.AuthNetwork:
			status = http.StatusBadGateway
		}
		logger.Warn("Authentication failed", "error", err, "kind", kind)
		writeJSON(w, r, status, resp)

	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", "error", err)
		writeJSON(w, r, http.StatusNotFound, resp)

	case goerr.HasTag(err, errs.TagUnauthorized):
		logger.Warn("Unauthorized", "error", err)
		writeJSON(w, r, http.StatusUnauthorized, resp)

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", "error", err)
		writeJSON(w, r, http.StatusForbidden, resp)

	case goerr.HasTag(err, errs.TagConflict):
		logger.Warn("Conflict", "error", err)
		writeJSON(w, r, http.StatusConflict, resp)

	case goerr.HasTag(err, errs.TagExternal):
		logger.Error("External Service Error", "error", err)
		writeJSON(w, r, http.StatusBadGateway, resp)

	default:
		errs.Handle(r.Context(), err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

package http

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/access"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// getDetailedStackTrace returns a detailed stack trace with function names and line numbers
func getDetailedStackTrace() string {
	var buf strings.Builder
	buf.WriteString("Detailed Stack Trace:\n")

	// skip the frames of the recovery code
	callers := make([]uintptr, 64)
	n := runtime.Callers(3, callers)
	frames := runtime.CallersFrames(callers[:n])

	for {
		frame, more := frames.Next()
		buf.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}

	return buf.String()
}

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				panicErr := goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", err)),
					goerr.V("debug_stack", string(debug.Stack())),
					goerr.V("detailed_stack", getDetailedStackTrace()),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
				)

				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loadingView is rendered while the session is still being restored.
type loadingView struct {
	View string `json:"view"`
}

// applyDecision writes the response for a non-allow decision and reports
// whether the request was handled.
func applyDecision(w http.ResponseWriter, r *http.Request, d access.Decision) bool {
	switch d.Kind {
	case access.Allow:
		return false

	case access.Pending:
		writeJSON(w, r, http.StatusAccepted, loadingView{View: "loading"})
		return true

	case access.Redirect:
		logging.From(r.Context()).Debug("guard redirect", "from", r.URL.Path, "to", d.Path)
		http.Redirect(w, r, d.Path, http.StatusSeeOther)
		return true
	}

	handleError(w, r, goerr.New("unknown guard decision", goerr.V("kind", d.Kind.String())))
	return true
}

// requireRole admits sessions with the given role. types.RoleNone admits
// any signed-in session.
func requireRole(sessions SessionStore, role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applyDecision(w, r, access.Decide(sessions.Session(), role)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// publicOnly sends signed-in sessions to their dashboard.
func publicOnly(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applyDecision(w, r, access.DecidePublicOnly(sessions.Session())) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

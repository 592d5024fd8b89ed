package access

import (
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

type Kind int

const (
	Allow Kind = iota
	Redirect
	// Pending means the session is still being restored and the view must
	// show a loading state.
	Pending
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Decision is the outcome of a guard check. Path is set for Redirect.
type Decision struct {
	Kind Kind
	Path string
}

func allow() Decision            { return Decision{Kind: Allow} }
func pending() Decision          { return Decision{Kind: Pending} }
func redirect(p string) Decision { return Decision{Kind: Redirect, Path: p} }

// DashboardFor returns the landing page of a role. An unknown role falls
// back to the login page.
func DashboardFor(role types.Role) string {
	switch role {
	case types.RoleCitizen:
		return types.PathUserDashboard
	case types.RoleOrg:
		return types.PathAdminDashboard
	case types.RoleWarden:
		return types.PathWardenPanel
	case types.RoleNone:
		return types.PathLogin
	}
	return types.PathLogin
}

// Decide guards a protected view. required RoleNone admits any
// authenticated session.
func Decide(s session.Session, required types.Role) Decision {
	switch s.Status {
	case session.StatusUnknown:
		return pending()
	case session.StatusAnonymous:
		return redirect(types.PathLogin)
	case session.StatusAuthenticated:
		if !s.IsAuthenticated() {
			return redirect(types.PathLogin)
		}
		if required != types.RoleNone && s.Role != required {
			return redirect(DashboardFor(s.Role))
		}
		return allow()
	}
	return redirect(types.PathLogin)
}

// DecidePublicOnly guards views such as login that signed-in users skip.
func DecidePublicOnly(s session.Session) Decision {
	switch s.Status {
	case session.StatusUnknown:
		return pending()
	case session.StatusAuthenticated:
		return redirect(DashboardFor(s.Role))
	case session.StatusAnonymous:
		return allow()
	}
	return allow()
}

package access_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/model/access"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

var allRoles = []types.Role{types.RoleNone, types.RoleCitizen, types.RoleOrg, types.RoleWarden}

func signedIn(role types.Role) session.Session {
	return session.Authenticated(session.Profile{UID: "u1", Email: "u@example.com", Name: "U", Role: role})
}

func TestDecide(t *testing.T) {
	t.Run("unknown is pending for every role", func(t *testing.T) {
		for _, role := range allRoles {
			d := access.Decide(session.Unknown(), role)
			gt.Equal(t, d.Kind, access.Pending)
		}
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		for _, role := range allRoles {
			gt.Equal(t, access.Decide(session.Anonymous(), role), access.Decision{Kind: access.Redirect, Path: "/login"})
		}
	})

	t.Run("org on citizen page", func(t *testing.T) {
		d := access.Decide(signedIn(types.RoleOrg), types.RoleCitizen)
		gt.Equal(t, d, access.Decision{Kind: access.Redirect, Path: "/admin-dashboard"})
	})

	t.Run("matching role", func(t *testing.T) {
		gt.Equal(t, access.Decide(signedIn(types.RoleWarden), types.RoleWarden).Kind, access.Allow)
	})

	t.Run("any role", func(t *testing.T) {
		for _, role := range allRoles[1:] {
			gt.Equal(t, access.Decide(signedIn(role), types.RoleNone).Kind, access.Allow)
		}
	})
}

func TestDecidePublicOnly(t *testing.T) {
	gt.Equal(t, access.DecidePublicOnly(session.Unknown()).Kind, access.Pending)
	gt.Equal(t, access.DecidePublicOnly(session.Anonymous()).Kind, access.Allow)
	gt.Equal(t, access.DecidePublicOnly(signedIn(types.RoleCitizen)), access.Decision{Kind: access.Redirect, Path: "/user-dashboard"})
}

func TestDashboardFor(t *testing.T) {
	gt.Equal(t, access.DashboardFor(types.RoleCitizen), "/user-dashboard")
	gt.Equal(t, access.DashboardFor(types.RoleOrg), "/admin-dashboard")
	gt.Equal(t, access.DashboardFor(types.RoleWarden), "/warden-panel")
}

package session

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// Status is the lifecycle position of a session.
type Status string

const (
	// StatusUnknown means rehydration has not finished yet.
	StatusUnknown       Status = "unknown"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// User is the signed-in identity as shown to views.
type User struct {
	ID    types.UserID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
}

// Session is the client's view of the current identity and role.
// Build it with Unknown, Anonymous or Authenticated to keep the invariants.
type Session struct {
	Status  Status     `json:"status"`
	Role    types.Role `json:"role"`
	User    *User      `json:"user"`
	OrgName string     `json:"orgName,omitempty"`
}

func Unknown() Session {
	return Session{Status: StatusUnknown}
}

func Anonymous() Session {
	return Session{Status: StatusAnonymous}
}

func Authenticated(profile Profile) Session {
	return Session{
		Status: StatusAuthenticated,
		Role:   profile.Role,
		User: &User{
			ID:    profile.UID,
			Name:  profile.Name,
			Email: profile.Email,
		},
		OrgName: profile.OrgName,
	}
}

func (x Session) IsAuthenticated() bool {
	return x.User != nil
}

// Validate checks isAuthenticated == (user != nil) and that a role is
// present exactly when authenticated.
func (x Session) Validate() error {
	switch x.Status {
	case StatusUnknown, StatusAnonymous:
		if x.User != nil {
			return goerr.New("user is set on unauthenticated session", goerr.V("status", x.Status))
		}
		if x.Role != types.RoleNone {
			return goerr.New("role is set on unauthenticated session", goerr.V("status", x.Status), goerr.V("role", x.Role))
		}
	case StatusAuthenticated:
		if x.User == nil {
			return goerr.New("authenticated session without user")
		}
		if err := x.Role.Validate(); err != nil {
			return goerr.Wrap(err, "authenticated session without valid role")
		}
	default:
		return goerr.New("invalid session status", goerr.V("status", x.Status))
	}
	return nil
}

// Profile is the stored user profile document (users/{uid}).
type Profile struct {
	UID       types.UserID `json:"uid" firestore:"uid"`
	Email     string       `json:"email" firestore:"email"`
	Name      string       `json:"name" firestore:"name"`
	Role      types.Role   `json:"role" firestore:"role"`
	OrgName   string       `json:"orgName,omitempty" firestore:"orgName,omitempty"`
	CreatedAt time.Time    `json:"createdAt" firestore:"createdAt"`
}

func (x *Profile) Validate() error {
	if x.UID == types.EmptyUserID {
		return goerr.New("empty uid")
	}
	if x.Email == "" {
		return goerr.New("empty email", goerr.V("uid", x.UID))
	}
	if err := x.Role.Validate(); err != nil {
		return goerr.Wrap(err, "invalid profile role", goerr.V("uid", x.UID))
	}
	if x.Role == types.RoleOrg && x.OrgName == "" {
		return goerr.New("organization profile without org name", goerr.V("uid", x.UID))
	}
	return nil
}

// Identity is what the identity provider knows about a signed-in account.
type Identity struct {
	UID         types.UserID `json:"uid"`
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName,omitempty"`
}

// Credentials for password sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password" masq:"secret"`
}

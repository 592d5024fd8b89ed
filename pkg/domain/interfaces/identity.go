package interfaces

import (
	"context"

	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
)

// IdentityHandler is called with the signed-in identity, or nil after
// sign-out.
type IdentityHandler func(identity *session.Identity)

// IdentityProvider is the authentication backend. Errors are auth errors
// (see errs.AuthKind).
type IdentityProvider interface {
	SignIn(ctx context.Context, cred session.Credentials) (*session.Identity, error)
	SignUp(ctx context.Context, cred session.Credentials, displayName string) (*session.Identity, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChanged registers handler and calls it once with the
	// current state. The returned function unregisters it.
	OnAuthStateChanged(ctx context.Context, handler IdentityHandler) func()
}

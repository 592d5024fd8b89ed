package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
)

const minPasswordLength = 6

type account struct {
	identity session.Identity
	password string
}

// Memory is an in-process identity provider for development and tests.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]*account
	current  *session.Identity
	offline  bool

	listeners *listeners
}

var _ interfaces.IdentityProvider = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[string]*account),
		listeners: newListeners(),
	}
}

// AddAccount registers an account without signing in.
func (x *Memory) AddAccount(uid types.UserID, email, password, displayName string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.accounts[strings.ToLower(email)] = &account{
		identity: session.Identity{UID: uid, Email: email, DisplayName: displayName},
		password: password,
	}
}

// SetOffline makes every call fail with a network error.
func (x *Memory) SetOffline(offline bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.offline = offline
}

// Expire signs the current user out as if the provider revoked the
// session.
func (x *Memory) Expire(ctx context.Context) {
	x.mu.Lock()
	x.current = nil
	x.mu.Unlock()
	x.listeners.emit(ctx, nil)
}

func (x *Memory) SignIn(ctx context.Context, cred session.Credentials) (*session.Identity, error) {
	x.mu.Lock()
	if x.offline {
		x.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthNetwork, goerr.TV(errutil.ProviderKey, "memory"))
	}

	acct, ok := x.accounts[strings.ToLower(cred.Email)]
	if !ok || acct.password != cred.Password {
		x.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthInvalidCredentials,
			goerr.TV(errutil.ProviderKey, "memory"),
			goerr.TV(errutil.EmailKey, cred.Email),
		)
	}

	identity := acct.identity
	x.current = &identity
	x.mu.Unlock()

	x.listeners.emit(ctx, &identity)
	return copyIdentity(&identity), nil
}

func (x *Memory) SignUp(ctx context.Context, cred session.Credentials, displayName string) (*session.Identity, error) {
	x.mu.Lock()
	if x.offline {
		x.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthNetwork, goerr.TV(errutil.ProviderKey, "memory"))
	}

	key := strings.ToLower(cred.Email)
	if _, exists := x.accounts[key]; exists {
		x.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthEmailInUse,
			goerr.TV(errutil.ProviderKey, "memory"),
			goerr.TV(errutil.EmailKey, cred.Email),
		)
	}
	if len(cred.Password) < minPasswordLength {
		x.mu.Unlock()
		return nil, errs.NewAuthError(errs.AuthWeakPassword, goerr.TV(errutil.ProviderKey, "memory"))
	}

	identity := session.Identity{
		UID:         types.UserID(uuid.NewString()),
		Email:       cred.Email,
		DisplayName: displayName,
	}
	x.accounts[key] = &account{identity: identity, password: cred.Password}
	x.current = &identity
	x.mu.Unlock()

	x.listeners.emit(ctx, &identity)
	return copyIdentity(&identity), nil
}

func (x *Memory) SignOut(ctx context.Context) error {
	x.mu.Lock()
	if x.offline {
		x.mu.Unlock()
		return errs.NewAuthError(errs.AuthNetwork, goerr.TV(errutil.ProviderKey, "memory"))
	}
	x.current = nil
	x.mu.Unlock()

	x.listeners.emit(ctx, nil)
	return nil
}

// OnAuthStateChanged calls handler synchronously with the current identity
// and again on every change.
func (x *Memory) OnAuthStateChanged(ctx context.Context, handler interfaces.IdentityHandler) func() {
	id := x.listeners.add(handler)

	x.mu.Lock()
	current := copyIdentity(x.current)
	x.mu.Unlock()
	handler(current)

	var once sync.Once
	return func() {
		once.Do(func() { x.listeners.remove(id) })
	}
}

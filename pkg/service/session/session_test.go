package session_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/adapter/identity"
	"github.com/secmon-lab/notifyme/pkg/adapter/storage"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	model "github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/repository/memory"
	"github.com/secmon-lab/notifyme/pkg/service/session"
	"github.com/secmon-lab/notifyme/pkg/service/toast"
)

type fixture struct {
	provider *identity.Memory
	repo     *memory.Memory
	storage  *storage.Memory
	toasts   *toast.Queue
	store    *session.Store

	mu      sync.Mutex
	history []model.Session
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		provider: identity.NewMemory(),
		repo:     memory.New(),
		storage:  storage.NewMemory(),
		toasts:   toast.New(),
	}
	t.Cleanup(f.toasts.Close)

	f.provider.AddAccount("uid-citizen", "alice@example.com", "secret1", "Alice")
	gt.NoError(t, f.repo.PutProfile(t.Context(), model.Profile{
		UID:   "uid-citizen",
		Email: "alice@example.com",
		Name:  "Alice",
		Role:  types.RoleCitizen,
	})).Required()

	f.store = session.New(f.provider, f.repo, f.storage, session.WithToastSink(f.toasts))
	t.Cleanup(f.store.Close)

	unwatch := f.store.Watch(func(s model.Session) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.history = append(f.history, s)
	})
	t.Cleanup(unwatch)
	return f
}

func (f *fixture) start(t *testing.T) {
	gt.NoError(t, f.store.Start(t.Context())).Required()
	<-f.store.Ready()
}

func (f *fixture) snapshot(t *testing.T) map[string]any {
	data, err := f.storage.Load(context.Background(), model.StorageKey)
	gt.NoError(t, err).Required()
	var raw map[string]any
	gt.NoError(t, json.Unmarshal(data, &raw)).Required()
	return raw
}

func (f *fixture) lastToast() string {
	toasts := f.toasts.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	return toasts[len(toasts)-1].Message
}

func (f *fixture) checkInvariant(t *testing.T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.history {
		gt.NoError(t, s.Validate())
		gt.Equal(t, s.IsAuthenticated(), s.User != nil)
	}
}

func TestStore_Login(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)

	s, err := f.store.Login(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
	gt.NoError(t, err).Required()
	gt.Equal(t, s.Role, types.RoleCitizen)

	snap := f.snapshot(t)
	gt.Equal(t, snap["isAuthenticated"], any(true))
	gt.Equal(t, snap["role"], any("citizen"))
	gt.Equal(t, snap["user"], any(map[string]any{
		"id":    "uid-citizen",
		"name":  "Alice",
		"email": "alice@example.com",
	}))

	gt.Equal(t, f.lastToast(), "Welcome back, Alice!")
	f.checkInvariant(t)
}

func TestStore_LoginFailures(t *testing.T) {
	t.Run("validation runs before the provider", func(t *testing.T) {
		f := newFixture(t)
		f.start(t)
		f.provider.SetOffline(true)

		_, err := f.store.Login(t.Context(), model.Credentials{Email: "bad", Password: ""})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
		gt.Equal(t, errs.ValidationErrorsOf(err).Get("email"), "Please enter a valid email address")
		gt.Equal(t, f.repo.GetCallCount("GetProfile"), 0)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		f := newFixture(t)
		f.start(t)

		_, err := f.store.Login(t.Context(), model.Credentials{Email: "alice@example.com", Password: "wrong!"})
		gt.True(t, errs.IsAuthKind(err, errs.AuthInvalidCredentials))
		gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
		gt.Equal(t, f.lastToast(), errs.AuthInvalidCredentials.Message())
	})

	t.Run("network error", func(t *testing.T) {
		f := newFixture(t)
		f.start(t)
		f.provider.SetOffline(true)

		_, err := f.store.Login(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
		gt.True(t, errs.IsAuthKind(err, errs.AuthNetwork))
	})

	t.Run("missing profile", func(t *testing.T) {
		f := newFixture(t)
		f.provider.AddAccount("uid-ghost", "ghost@example.com", "secret1", "Ghost")
		f.start(t)

		_, err := f.store.Login(t.Context(), model.Credentials{Email: "ghost@example.com", Password: "secret1"})
		gt.True(t, errs.IsAuthKind(err, errs.AuthProfileMissing))
		gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
		gt.Equal(t, f.lastToast(), "User profile not found")
		f.checkInvariant(t)
	})
}

func TestStore_Register(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	s, err := f.store.Register(t.Context(), model.RegisterForm{
		Name:            "Gate Keepers",
		Email:           "org@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            types.RoleOrg,
		OrgName:         "Gate Keepers Ltd",
	})
	gt.NoError(t, err).Required()
	gt.Equal(t, s.Role, types.RoleOrg)
	gt.Equal(t, s.OrgName, "Gate Keepers Ltd")
	gt.Equal(t, f.store.Session().Status, model.StatusAuthenticated)

	profile, err := f.repo.GetProfile(t.Context(), s.User.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, profile.Role, types.RoleOrg)
	gt.Equal(t, profile.OrgName, "Gate Keepers Ltd")
	gt.False(t, profile.CreatedAt.IsZero())

	gt.Equal(t, f.lastToast(), "Welcome to NotifyMe, Gate Keepers!")
	f.checkInvariant(t)

	t.Run("email in use", func(t *testing.T) {
		_, err := f.store.Register(t.Context(), model.RegisterForm{
			Name:            "Alice Again",
			Email:           "alice@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
			Role:            types.RoleCitizen,
		})
		gt.True(t, errs.IsAuthKind(err, errs.AuthEmailInUse))
	})

	t.Run("profile write failure signs the new account out", func(t *testing.T) {
		f := newFixture(t)
		store := session.New(f.provider, &profileWriteFailure{Memory: f.repo}, f.storage, session.WithToastSink(f.toasts))
		t.Cleanup(store.Close)
		gt.NoError(t, store.Start(t.Context())).Required()
		<-store.Ready()

		_, err := store.Register(t.Context(), model.RegisterForm{
			Name:            "Bob",
			Email:           "bob@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
			Role:            types.RoleCitizen,
		})
		gt.True(t, errs.IsAuthKind(err, errs.AuthNetwork))
		gt.Equal(t, store.Session().Status, model.StatusAnonymous)
		gt.Equal(t, f.lastToast(), "Network error, please try again")

		var current *model.Identity
		stop := f.provider.OnAuthStateChanged(t.Context(), func(id *model.Identity) { current = id })
		stop()
		gt.True(t, current == nil)
	})
}

type profileWriteFailure struct {
	*memory.Memory
}

func (x *profileWriteFailure) PutProfile(ctx context.Context, profile model.Profile) error {
	return goerr.New("profile write rejected", goerr.T(errs.TagDatabase))
}

func TestStore_Logout(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.store.Login(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
	gt.NoError(t, err).Required()

	// provider failure does not keep the user signed in
	f.provider.SetOffline(true)
	f.store.Logout(t.Context())

	gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
	snap := f.snapshot(t)
	gt.Equal(t, snap["isAuthenticated"], any(false))
	gt.Nil(t, snap["role"])
	gt.Nil(t, snap["user"])
	gt.Equal(t, f.lastToast(), "Logged out successfully")
	f.checkInvariant(t)
}

func TestStore_Rehydrate(t *testing.T) {
	t.Run("snapshot then provider confirms", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.provider.SignIn(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
		gt.NoError(t, err).Required()

		data, err := model.Authenticated(model.Profile{
			UID: "uid-citizen", Email: "alice@example.com", Name: "Alice", Role: types.RoleCitizen,
		}).Snapshot().Marshal()
		gt.NoError(t, err).Required()
		gt.NoError(t, f.storage.Save(t.Context(), model.StorageKey, data)).Required()

		f.start(t)
		gt.Equal(t, f.store.Session().Status, model.StatusAuthenticated)
		gt.Equal(t, f.store.Session().User.Name, "Alice")
		f.checkInvariant(t)
	})

	t.Run("provider overrides stale snapshot", func(t *testing.T) {
		f := newFixture(t)
		data, err := model.Authenticated(model.Profile{
			UID: "uid-citizen", Email: "alice@example.com", Name: "Alice", Role: types.RoleCitizen,
		}).Snapshot().Marshal()
		gt.NoError(t, err).Required()
		gt.NoError(t, f.storage.Save(t.Context(), model.StorageKey, data)).Required()

		f.start(t)
		gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
		gt.Equal(t, f.snapshot(t)["isAuthenticated"], any(false))
		f.checkInvariant(t)
	})

	t.Run("snapshot ignored once the provider resolved", func(t *testing.T) {
		f := newFixture(t)
		f.start(t)
		f.store.Close()

		data, err := model.Authenticated(model.Profile{
			UID: "uid-citizen", Email: "alice@example.com", Name: "Alice", Role: types.RoleCitizen,
		}).Snapshot().Marshal()
		gt.NoError(t, err).Required()
		gt.NoError(t, f.storage.Save(t.Context(), model.StorageKey, data)).Required()

		f.mu.Lock()
		f.history = nil
		f.mu.Unlock()

		gt.NoError(t, f.store.Start(t.Context())).Required()
		gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)

		f.mu.Lock()
		defer f.mu.Unlock()
		for _, s := range f.history {
			gt.False(t, s.IsAuthenticated())
		}
	})

	t.Run("unknown before start", func(t *testing.T) {
		f := newFixture(t)
		gt.Equal(t, f.store.Session().Status, model.StatusUnknown)
	})
}

func TestStore_ProviderSignOut(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.store.Login(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
	gt.NoError(t, err).Required()

	f.provider.Expire(t.Context())
	gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
	f.checkInvariant(t)
}

func TestStore_Close(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.store.Close()
	f.store.Close()

	_, err := f.provider.SignIn(t.Context(), model.Credentials{Email: "alice@example.com", Password: "secret1"})
	gt.NoError(t, err).Required()
	gt.Equal(t, f.store.Session().Status, model.StatusAnonymous)
}

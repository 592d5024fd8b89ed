package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	model "github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
)

// Store owns the current session. It restores the last snapshot on Start,
// then follows the identity provider, which is authoritative.
type Store struct {
	identity interfaces.IdentityProvider
	repo     interfaces.Repository
	storage  interfaces.SessionStorage
	toasts   interfaces.ToastSink

	mu      sync.Mutex
	current model.Session
	// generation increases on every transition so that a slow profile
	// lookup cannot overwrite a newer state.
	generation uint64
	stop       func()
	ready      chan struct{}
	readyOnce  sync.Once

	watchMu  sync.Mutex
	watchers map[int]func(model.Session)
	nextID   int
}

type Option func(*Store)

// WithToastSink sends login, register and logout feedback to sink.
func WithToastSink(sink interfaces.ToastSink) Option {
	return func(s *Store) {
		s.toasts = sink
	}
}

func New(identity interfaces.IdentityProvider, repo interfaces.Repository, storage interfaces.SessionStorage, opts ...Option) *Store {
	s := &Store{
		identity: identity,
		repo:     repo,
		storage:  storage,
		current:  model.Unknown(),
		ready:    make(chan struct{}),
		watchers: make(map[int]func(model.Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the current session.
func (s *Store) Session() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Ready is closed once the identity provider reported its first state.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Watch registers fn for every transition. The returned function
// unregisters it.
func (s *Store) Watch(fn func(model.Session)) func() {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

// Start restores the persisted snapshot and subscribes to the identity
// provider. Until the provider answers, a restored snapshot is shown but
// the status stays Unknown if nothing was stored.
func (s *Store) Start(ctx context.Context) error {
	s.rehydrate(ctx)

	stop := s.identity.OnAuthStateChanged(ctx, func(identity *model.Identity) {
		s.onAuthState(ctx, identity)
	})

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return nil
}

// Close unsubscribes from the identity provider.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *Store) rehydrate(ctx context.Context) {
	logger := logging.From(ctx)

	data, err := s.storage.Load(ctx, model.StorageKey)
	if err != nil {
		logger.Warn("failed to load session snapshot", logging.ErrAttr(err))
		return
	}
	if data == nil {
		return
	}

	snap, err := model.UnmarshalSnapshot(data)
	if err != nil {
		logger.Warn("discarding broken session snapshot", logging.ErrAttr(err))
		return
	}

	restored := snap.Session()
	if !restored.IsAuthenticated() {
		// wait for the provider instead of claiming anonymous early
		return
	}

	s.mu.Lock()
	applied := s.current.Status == model.StatusUnknown
	if applied {
		s.current = restored
		s.generation++
	}
	s.mu.Unlock()

	if applied {
		s.publish(ctx, restored)
	}
}

// onAuthState resolves the provider identity to a profile.
func (s *Store) onAuthState(ctx context.Context, identity *model.Identity) {
	defer s.readyOnce.Do(func() { close(s.ready) })

	s.mu.Lock()
	gen := s.generation + 1
	s.generation = gen
	s.mu.Unlock()

	if identity == nil {
		s.transition(ctx, gen, model.Anonymous())
		return
	}

	profile, err := s.repo.GetProfile(ctx, identity.UID)
	if err != nil {
		if !errs.IsNotFound(err) {
			errs.Handle(ctx, goerr.Wrap(err, "failed to resolve profile", goerr.TV(errutil.UserIDKey, identity.UID)))
		} else {
			logging.From(ctx).Warn("signed-in user has no profile", slog.String("uid", identity.UID.String()))
		}
		s.transition(ctx, gen, model.Anonymous())
		return
	}

	s.transition(ctx, gen, model.Authenticated(*profile))
}

// transition applies next if no newer transition happened since gen was
// taken, then persists and publishes it.
func (s *Store) transition(ctx context.Context, gen uint64, next model.Session) bool {
	if err := next.Validate(); err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "rejected invalid session transition"))
		return false
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	if sameSession(s.current, next) {
		s.mu.Unlock()
		return true
	}
	s.current = next
	s.mu.Unlock()

	s.persist(ctx, next)
	s.publish(ctx, next)
	return true
}

// force applies next unconditionally for user initiated transitions.
func (s *Store) force(ctx context.Context, next model.Session) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()
	s.transition(ctx, gen, next)
}

func sameSession(a, b model.Session) bool {
	if a.Status != b.Status || a.Role != b.Role || a.OrgName != b.OrgName {
		return false
	}
	if (a.User == nil) != (b.User == nil) {
		return false
	}
	return a.User == nil || *a.User == *b.User
}

func (s *Store) persist(ctx context.Context, current model.Session) {
	data, err := current.Snapshot().Marshal()
	if err != nil {
		errs.Handle(ctx, err)
		return
	}
	if err := s.storage.Save(ctx, model.StorageKey, data); err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "failed to persist session", goerr.TV(errutil.StorageKey, model.StorageKey)))
	}
}

func (s *Store) publish(ctx context.Context, current model.Session) {
	s.watchMu.Lock()
	fns := make([]func(model.Session), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		safe.Call(ctx, "session_watch", func() { fn(current) })
	}
}

func (s *Store) toast(input notification.ToastInput) {
	if s.toasts != nil {
		s.toasts.EnqueueToast(input)
	}
}

func (s *Store) toastError(err error) {
	msg := errs.AuthInvalidCredentials.Message()
	if kind, ok := errs.AuthKindOf(err); ok {
		msg = kind.Message()
	}
	s.toast(notification.ToastInput{Message: msg, Type: types.MessageError})
}

// Login signs in and loads the user's profile. The role always comes from
// the stored profile.
func (s *Store) Login(ctx context.Context, cred model.Credentials) (*model.Session, error) {
	if err := cred.Validate().Err(); err != nil {
		return nil, err
	}

	identity, err := s.identity.SignIn(ctx, cred)
	if err != nil {
		s.toastError(err)
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, identity.UID)
	if err != nil {
		kind := errs.AuthNetwork
		if errs.IsNotFound(err) {
			kind = errs.AuthProfileMissing
		}
		authErr := errs.WrapAuthError(err, kind, goerr.TV(errutil.UserIDKey, identity.UID))
		if signOutErr := s.identity.SignOut(ctx); signOutErr != nil {
			logging.From(ctx).Warn("failed to sign out after profile lookup failure", logging.ErrAttr(signOutErr))
		}
		s.force(ctx, model.Anonymous())
		s.toastError(authErr)
		return nil, authErr
	}

	next := model.Authenticated(*profile)
	s.force(ctx, next)
	s.toast(notification.ToastInput{Message: notification.WelcomeBack(profile.Name), Type: types.MessageSuccess})
	return &next, nil
}

// Register creates the account and its profile document.
func (s *Store) Register(ctx context.Context, form model.RegisterForm) (*model.Session, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	identity, err := s.identity.SignUp(ctx, form.Credentials(), form.Name)
	if err != nil {
		s.toastError(err)
		return nil, err
	}

	profile := form.Profile(identity.UID)
	profile.CreatedAt = clock.Now(ctx)
	if err := s.repo.PutProfile(ctx, profile); err != nil {
		authErr := errs.WrapAuthError(err, errs.AuthNetwork, goerr.TV(errutil.UserIDKey, identity.UID))
		if signOutErr := s.identity.SignOut(ctx); signOutErr != nil {
			logging.From(ctx).Warn("failed to sign out after profile write failure", logging.ErrAttr(signOutErr))
		}
		s.force(ctx, model.Anonymous())
		s.toastError(authErr)
		return nil, authErr
	}

	next := model.Authenticated(profile)
	s.force(ctx, next)
	s.toast(notification.ToastInput{Message: notification.Welcome(profile.Name), Type: types.MessageSuccess})
	return &next, nil
}

// Logout always ends the local session. A provider failure is logged and
// not returned.
func (s *Store) Logout(ctx context.Context) {
	if err := s.identity.SignOut(ctx); err != nil {
		logging.From(ctx).Warn("identity provider sign-out failed", logging.ErrAttr(err))
	}

	s.force(ctx, model.Anonymous())
	s.toast(notification.ToastInput{Message: notification.MsgLogout, Type: types.MessageSuccess})
}

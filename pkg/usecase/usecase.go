package usecase

import (
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/repository/memory"
	"github.com/secmon-lab/notifyme/pkg/service/notifier"
)

// UseCases implements the notice workflow on top of the repository. The
// caller passes the current session so that authorization always reflects
// the verified profile.
type UseCases struct {
	repository interfaces.Repository
	notifier   interfaces.Notifier
	toasts     interfaces.ToastSink
}

type Option func(*UseCases)

func WithRepository(repository interfaces.Repository) Option {
	return func(u *UseCases) {
		u.repository = repository
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(u *UseCases) {
		u.notifier = notifier
	}
}

// WithToastSink reports outcomes of user actions as toasts.
func WithToastSink(sink interfaces.ToastSink) Option {
	return func(u *UseCases) {
		u.toasts = sink
	}
}

func New(opts ...Option) *UseCases {
	u := &UseCases{
		repository: memory.New(),
		notifier:   notifier.Discard{},
	}

	for _, opt := range opts {
		opt(u)
	}
	return u
}

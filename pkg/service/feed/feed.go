package feed

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notification"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// Filter selects the notices of a subscription. Zero values mean all
// notices ordered by timestamp descending.
type Filter = notice.Query

// State is what a subscriber renders.
type State struct {
	Notices notice.Notices `json:"notices"`
	Loading bool           `json:"loading"`
	Err     error          `json:"-"`
}

// Error returns the error text for presentation, or empty.
func (x State) Error() string {
	if x.Err == nil {
		return ""
	}
	return x.Err.Error()
}

type Service struct {
	repo   interfaces.Repository
	toasts interfaces.ToastSink
}

type Option func(*Service)

// WithToastSink reports delivery failures as error toasts.
func WithToastSink(sink interfaces.ToastSink) Option {
	return func(s *Service) {
		s.toasts = sink
	}
}

func New(repo interfaces.Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscription is a live view of the notices matching a filter. It holds
// one remote subscription at a time, released by SetFilter and Close.
type Subscription struct {
	svc *Service
	ctx context.Context

	mu     sync.Mutex
	filter Filter
	state  State
	// generation identifies the current remote subscription; deliveries
	// from an older one are dropped.
	generation  uint64
	unsubscribe func()
	closed      bool
	updates     chan State

	closeOnce sync.Once
}

// Subscribe starts watching notices matching filter. Close must be called
// to release the remote subscription.
func (s *Service) Subscribe(ctx context.Context, filter Filter) *Subscription {
	sub := &Subscription{
		svc:     s,
		ctx:     ctx,
		filter:  filter,
		updates: make(chan State, 1),
	}
	sub.start()
	return sub
}

// State returns the latest state.
func (x *Subscription) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// Filter returns the active filter.
func (x *Subscription) Filter() Filter {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.filter
}

// Updates delivers states as they change. Only the latest undelivered
// state is kept. The channel is closed by Close.
func (x *Subscription) Updates() <-chan State {
	return x.updates
}

// Retry re-issues the remote subscription with the current filter.
func (x *Subscription) Retry() {
	x.start()
}

// SetFilter releases the current remote subscription and starts a new one
// for filter.
func (x *Subscription) SetFilter(filter Filter) {
	x.mu.Lock()
	x.filter = filter
	x.mu.Unlock()
	x.start()
}

// Close releases the remote subscription and closes Updates. Calling it
// again is a no-op.
func (x *Subscription) Close() {
	x.closeOnce.Do(func() {
		x.mu.Lock()
		x.closed = true
		x.generation++
		unsubscribe := x.unsubscribe
		x.unsubscribe = nil
		x.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}

		x.mu.Lock()
		close(x.updates)
		x.mu.Unlock()
	})
}

func (x *Subscription) start() {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return
	}
	x.generation++
	gen := x.generation
	filter := x.filter
	prev := x.unsubscribe
	x.unsubscribe = nil
	x.setState(State{Notices: x.state.Notices, Loading: true})
	x.mu.Unlock()

	// wait for the previous listener to stop before issuing a new one
	if prev != nil {
		prev()
	}

	unsubscribe, err := x.svc.repo.WatchNotices(x.ctx, filter, func(notices notice.Notices, err error) {
		x.deliver(gen, notices, err)
	})
	if err != nil {
		x.deliver(gen, nil, err)
		return
	}

	x.mu.Lock()
	if x.closed || x.generation != gen {
		x.mu.Unlock()
		unsubscribe()
		return
	}
	x.unsubscribe = unsubscribe
	x.mu.Unlock()
}

func (x *Subscription) deliver(gen uint64, notices notice.Notices, err error) {
	x.mu.Lock()
	if x.closed || x.generation != gen {
		x.mu.Unlock()
		return
	}

	if err == nil {
		x.setState(State{Notices: notices})
		x.mu.Unlock()
		return
	}

	x.setState(State{Notices: x.state.Notices, Err: err})
	filter := x.filter
	x.mu.Unlock()

	// a document that cannot be decoded is not a connectivity problem, so
	// it is reported without a toast
	if goerr.HasTag(err, errs.TagDecode) {
		logging.From(x.ctx).Warn("failed to process notices", logging.ErrAttr(err))
		return
	}

	errs.Handle(x.ctx, errs.WrapFeedError(err,
		goerr.V("author_id", filter.AuthorID),
		goerr.V("category", filter.Category),
	))
	if x.svc.toasts != nil {
		x.svc.toasts.EnqueueToast(notification.ToastInput{
			Message: notification.MsgNoticeLoadFailed,
			Type:    types.MessageError,
		})
	}
}

// setState must be called with mu held.
func (x *Subscription) setState(state State) {
	x.state = state
	select {
	case <-x.updates:
	default:
	}
	x.updates <- state
}

package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
)

type watcher struct {
	query   notice.Query
	handler interfaces.NoticeHandler
	// signal is a coalescing wake-up; one pending signal is enough because
	// each delivery reads the latest state.
	signal chan struct{}
	fail   chan error
	done   chan struct{}
}

func (w *watcher) wake() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// WatchNotices delivers the current result immediately and again after
// each write. The returned function waits for in-flight delivery, so it
// must not be called from inside handler.
func (r *Memory) WatchNotices(ctx context.Context, q notice.Query, handler interfaces.NoticeHandler) (func(), error) {
	r.incrementCallCount("WatchNotices")

	if err := q.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid notice query", goerr.T(errs.TagValidation))
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		query:   q.WithDefaults(),
		handler: handler,
		signal:  make(chan struct{}, 1),
		fail:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	r.watchMu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = w
	r.watchMu.Unlock()

	w.wake()
	go r.runWatcher(ctx, w)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.watchMu.Lock()
			delete(r.watchers, id)
			r.watchMu.Unlock()

			cancel()
			<-w.done
		})
	}, nil
}

func (r *Memory) runWatcher(ctx context.Context, w *watcher) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-w.fail:
			if ctx.Err() == nil {
				w.handler(nil, err)
			}
			return

		case <-w.signal:
			notices, err := r.query(w.query)
			if ctx.Err() != nil {
				return
			}
			w.handler(notices, err)
			if err != nil {
				return
			}
		}
	}
}

func (r *Memory) notifyWatchers() {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	for _, w := range r.watchers {
		w.wake()
	}
}

// FailWatchers makes every active watcher receive err and stop, as a
// broken remote listener would.
func (r *Memory) FailWatchers(err error) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	for id, w := range r.watchers {
		select {
		case w.fail <- r.eb.Wrap(err, "notice snapshot failed", goerr.T(errs.TagExternal)):
		default:
		}
		delete(r.watchers, id)
	}
}

// ActiveWatchers returns the number of registered watchers.
func (r *Memory) ActiveWatchers() int {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	return len(r.watchers)
}

package firestore

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// WatchNotices listens to query snapshots. The returned function stops the
// listener and waits for the delivery goroutine to exit, so it must not be
// called from inside handler.
func (r *Firestore) WatchNotices(ctx context.Context, q notice.Query, handler interfaces.NoticeHandler) (func(), error) {
	query, err := r.noticeQuery(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	it := query.Snapshots(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				handler(nil, r.eb.Wrap(err, "notice snapshot failed", goerr.T(errs.TagExternal)))
				return
			}

			notices, err := r.decodeNotices(snap.Documents)
			if ctx.Err() != nil {
				return
			}
			handler(notices, err)
			if err != nil {
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

package repository_test

import (
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/repository/memory"
)

func TestNoticeRepository(t *testing.T) {
	runBoth(t, func(t *testing.T, repo interfaces.Repository) {
		ctx := t.Context()

		t.Run("create and get notice", func(t *testing.T) {
			author := newTestAuthor()
			input := newTestNotice(author, types.CategoryMaintenance)

			created, err := repo.CreateNotice(ctx, input)
			gt.NoError(t, err).Required()
			gt.Equal(t, created.ID, input.ID)
			gt.False(t, created.Timestamp.IsZero())
			gt.False(t, created.CreatedAt.IsZero())

			got, err := repo.GetNotice(ctx, input.ID)
			gt.NoError(t, err).Required()
			gt.Equal(t, got.Title, "Broken street light")
			gt.Equal(t, got.Description, input.Description)
			gt.Equal(t, got.Category, types.CategoryMaintenance)
			gt.Equal(t, got.Location, "Gate 2")
			gt.Equal(t, got.Tag, "Parking")
			gt.Equal(t, got.Author, author.Name)
			gt.Equal(t, got.AuthorID, author.ID)
			gt.Equal(t, got.Status, types.NoticeStatusPending)
			gt.False(t, got.IsPinned)
			gt.False(t, got.IsAssigned())
			gt.Equal(t, *got.Reactions, notice.Reactions{})
			gt.True(t, got.Timestamp.Equal(created.Timestamp))
		})

		t.Run("duplicate notice", func(t *testing.T) {
			input := newTestNotice(newTestAuthor(), types.CategoryEvent)
			_, err := repo.CreateNotice(ctx, input)
			gt.NoError(t, err).Required()

			_, err = repo.CreateNotice(ctx, input)
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, errs.TagConflict))
		})

		t.Run("get missing notice", func(t *testing.T) {
			_, err := repo.GetNotice(ctx, types.NewNoticeID())
			gt.True(t, errs.IsNotFound(err))
		})

		t.Run("first claim wins", func(t *testing.T) {
			created, err := repo.CreateNotice(ctx, newTestNotice(newTestAuthor(), types.CategoryComplaint))
			gt.NoError(t, err).Required()

			assigned, err := repo.AssignNotice(ctx, created.ID, "Org A")
			gt.NoError(t, err).Required()
			gt.Equal(t, assigned.AssignedOrg, "Org A")
			gt.Equal(t, assigned.Status, types.NoticeStatusOngoing)
			gt.False(t, assigned.StatusUpdatedAt.IsZero())

			_, err = repo.AssignNotice(ctx, created.ID, "Org B")
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, errs.TagConflict))

			again, err := repo.AssignNotice(ctx, created.ID, "Org A")
			gt.NoError(t, err).Required()
			gt.Equal(t, again.AssignedOrg, "Org A")
		})

		t.Run("assign missing notice", func(t *testing.T) {
			_, err := repo.AssignNotice(ctx, types.NewNoticeID(), "Org A")
			gt.True(t, errs.IsNotFound(err))
		})

		t.Run("update status", func(t *testing.T) {
			created, err := repo.CreateNotice(ctx, newTestNotice(newTestAuthor(), types.CategoryComplaint))
			gt.NoError(t, err).Required()

			updated, err := repo.UpdateNoticeStatus(ctx, created.ID, types.NoticeStatusCompleted)
			gt.NoError(t, err).Required()
			gt.Equal(t, updated.Status, types.NoticeStatusCompleted)
			gt.False(t, updated.StatusUpdatedAt.IsZero())

			_, err = repo.UpdateNoticeStatus(ctx, created.ID, "closed")
			gt.Error(t, err)
		})

		t.Run("list by author and category", func(t *testing.T) {
			author := newTestAuthor()
			first, err := repo.CreateNotice(ctx, newTestNotice(author, types.CategoryEvent))
			gt.NoError(t, err).Required()
			time.Sleep(10 * time.Millisecond)
			second, err := repo.CreateNotice(ctx, newTestNotice(author, types.CategoryEmergency))
			gt.NoError(t, err).Required()

			list, err := repo.ListNotices(ctx, notice.Query{AuthorID: author.ID})
			gt.NoError(t, err).Required()
			gt.A(t, list).Length(2)
			gt.Equal(t, list[0].ID, second.ID)
			gt.Equal(t, list[1].ID, first.ID)

			asc, err := repo.ListNotices(ctx, notice.Query{AuthorID: author.ID, OrderDirection: types.SortAsc})
			gt.NoError(t, err).Required()
			gt.Equal(t, asc[0].ID, first.ID)

			events, err := repo.ListNotices(ctx, notice.Query{AuthorID: author.ID, Category: types.CategoryEvent})
			gt.NoError(t, err).Required()
			gt.A(t, events).Length(1)
			gt.Equal(t, events[0].ID, first.ID)
		})

		t.Run("org notices", func(t *testing.T) {
			org := "Org " + newTestAuthor().ID.String()
			mine, err := repo.CreateNotice(ctx, newTestNotice(newTestAuthor(), types.CategoryMaintenance))
			gt.NoError(t, err).Required()
			other, err := repo.CreateNotice(ctx, newTestNotice(newTestAuthor(), types.CategoryMaintenance))
			gt.NoError(t, err).Required()
			open, err := repo.CreateNotice(ctx, newTestNotice(newTestAuthor(), types.CategoryMaintenance))
			gt.NoError(t, err).Required()

			_, err = repo.AssignNotice(ctx, mine.ID, org)
			gt.NoError(t, err).Required()
			_, err = repo.AssignNotice(ctx, other.ID, org+" other")
			gt.NoError(t, err).Required()

			list, err := repo.ListOrgNotices(ctx, org)
			gt.NoError(t, err).Required()

			found := map[types.NoticeID]bool{}
			for _, n := range list {
				found[n.ID] = true
				gt.True(t, !n.IsAssigned() || n.AssignedOrg == org)
			}
			gt.True(t, found[mine.ID])
			gt.True(t, found[open.ID])
			gt.False(t, found[other.ID])

			for i := 1; i < len(list); i++ {
				gt.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
			}
		})

		t.Run("watch delivers changes", func(t *testing.T) {
			author := newTestAuthor()
			var mu sync.Mutex
			var deliveries []notice.Notices

			stop, err := repo.WatchNotices(ctx, notice.Query{AuthorID: author.ID}, func(notices notice.Notices, err error) {
				gt.NoError(t, err)
				mu.Lock()
				deliveries = append(deliveries, notices)
				mu.Unlock()
			})
			gt.NoError(t, err).Required()
			defer stop()

			created, err := repo.CreateNotice(ctx, newTestNotice(author, types.CategoryEvent))
			gt.NoError(t, err).Required()

			latest := func() notice.Notices {
				mu.Lock()
				defer mu.Unlock()
				if len(deliveries) == 0 {
					return nil
				}
				return deliveries[len(deliveries)-1]
			}

			deadline := time.Now().Add(10 * time.Second)
			for time.Now().Before(deadline) {
				if l := latest(); len(l) == 1 && l[0].ID == created.ID {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			l := latest()
			gt.A(t, l).Length(1)
			gt.Equal(t, l[0].ID, created.ID)
			gt.False(t, l[0].Timestamp.IsZero())

			stop()
			stop()
		})
	})
}

func TestMemoryWatchFailure(t *testing.T) {
	repo := memory.New()
	errCh := make(chan error, 1)

	stop, err := repo.WatchNotices(t.Context(), notice.Query{}, func(_ notice.Notices, err error) {
		if err != nil {
			errCh <- err
		}
	})
	gt.NoError(t, err).Required()
	defer stop()

	gt.Equal(t, repo.ActiveWatchers(), 1)
	repo.FailWatchers(goerr.New("connection reset"))

	select {
	case err := <-errCh:
		gt.True(t, goerr.HasTag(err, errs.TagExternal))
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not receive error")
	}
	gt.Equal(t, repo.ActiveWatchers(), 0)
}

func TestMemoryCallCount(t *testing.T) {
	repo := memory.New()
	_, _ = repo.ListNotices(t.Context(), notice.Query{})
	gt.Equal(t, repo.GetCallCount("ListNotices"), 1)
	gt.Equal(t, repo.TotalCallCount(), 1)

	repo.ResetCallCounts()
	gt.Equal(t, repo.TotalCallCount(), 0)
}

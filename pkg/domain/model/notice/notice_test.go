package notice_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

func ids(notices notice.Notices) []types.NoticeID {
	var out []types.NoticeID
	for _, n := range notices {
		out = append(out, n.ID)
	}
	return out
}

func TestPinnedFirst(t *testing.T) {
	t.Run("pinned partition leads", func(t *testing.T) {
		input := notice.Notices{
			{ID: "A", IsPinned: false, Timestamp: time.Unix(300, 0)},
			{ID: "B", IsPinned: true, Timestamp: time.Unix(100, 0)},
			{ID: "C", IsPinned: false, Timestamp: time.Unix(200, 0)},
		}

		got := notice.PinnedFirst(input)
		gt.Equal(t, ids(got), []types.NoticeID{"B", "A", "C"})
		// input untouched
		gt.Equal(t, ids(input), []types.NoticeID{"A", "B", "C"})
	})

	t.Run("equal timestamps keep order", func(t *testing.T) {
		ts := time.Unix(100, 0)
		input := notice.Notices{
			{ID: "X", Timestamp: ts},
			{ID: "Y", Timestamp: ts},
			{ID: "Z", IsPinned: true, Timestamp: ts},
		}
		gt.Equal(t, ids(notice.PinnedFirst(input)), []types.NoticeID{"Z", "X", "Y"})
	})
}

func TestFilterOptions_Apply(t *testing.T) {
	input := notice.Notices{
		{ID: "1", Tag: "Garden", Category: types.CategoryEvent, Timestamp: time.Unix(100, 0)},
		{ID: "2", Category: types.CategoryEmergency, IsPinned: true, Timestamp: time.Unix(200, 0)},
		{ID: "3", Tag: "Parking", Category: types.CategoryMaintenance, Timestamp: time.Unix(300, 0)},
	}

	t.Run("defaults", func(t *testing.T) {
		opt := notice.DefaultFilterOptions()
		gt.True(t, opt.IsDefault())
		gt.Equal(t, ids(opt.Apply(input)), []types.NoticeID{"2", "3", "1"})
	})

	t.Run("oldest first", func(t *testing.T) {
		opt := notice.FilterOptions{SortBy: notice.SortOldest, ShowPinned: true}
		gt.Equal(t, ids(opt.Apply(input)), []types.NoticeID{"2", "1", "3"})
	})

	t.Run("hide pinned", func(t *testing.T) {
		opt := notice.FilterOptions{SortBy: notice.SortNewest}
		gt.Equal(t, ids(opt.Apply(input)), []types.NoticeID{"3", "1"})
	})

	t.Run("tag matches tag or category", func(t *testing.T) {
		opt := notice.DefaultFilterOptions()
		opt.Tags = []string{"Emergency", "garden"}
		gt.Equal(t, ids(opt.Apply(input)), []types.NoticeID{"2", "1"})
	})

	t.Run("invalid sort order", func(t *testing.T) {
		gt.Error(t, notice.FilterOptions{SortBy: "random"}.Validate())
	})
}

func TestQuery(t *testing.T) {
	q := notice.Query{}.WithDefaults()
	gt.Equal(t, q.OrderByField, "timestamp")
	gt.Equal(t, q.OrderDirection, types.SortDesc)
	gt.NoError(t, q.Validate())

	gt.Error(t, notice.Query{OrderByField: "author"}.Validate())
	gt.Error(t, notice.Query{Category: "unknown"}.Validate())

	mine := notice.Query{AuthorID: "u1"}
	gt.True(t, mine.Match(&notice.Notice{AuthorID: "u1"}))
	gt.False(t, mine.Match(&notice.Notice{AuthorID: "u2"}))

	list := notice.Notices{
		{ID: "a", Title: "b", Timestamp: time.Unix(1, 0)},
		{ID: "b", Title: "a", Timestamp: time.Unix(2, 0)},
	}
	q.Sort(list)
	gt.Equal(t, ids(list), []types.NoticeID{"b", "a"})

	notice.Query{OrderByField: "title", OrderDirection: types.SortAsc}.Sort(list)
	gt.Equal(t, ids(list), []types.NoticeID{"b", "a"})
}

func TestFormatTimestamp(t *testing.T) {
	gt.Equal(t, notice.FormatTimestamp(time.Time{}), "Unknown")
	gt.NotEqual(t, notice.FormatTimestamp(time.Now()), "Unknown")
}

func TestNotice_Age(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := &notice.Notice{Timestamp: now.Add(-3 * time.Minute)}
	gt.Equal(t, n.Age(now), "3 minutes ago")
	gt.Equal(t, (&notice.Notice{}).Age(now), "Unknown")
}

func TestNotice_EffectiveStatus(t *testing.T) {
	gt.Equal(t, (&notice.Notice{}).EffectiveStatus(), types.NoticeStatusPending)
	gt.Equal(t, (&notice.Notice{Status: types.NoticeStatusOngoing}).EffectiveStatus(), types.NoticeStatusOngoing)
}

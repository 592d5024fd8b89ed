package notice

import (
	"cmp"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

type Reactions struct {
	Likes    int `json:"likes" firestore:"likes"`
	ThumbsUp int `json:"thumbsUp" firestore:"thumbsUp"`
	Sad      int `json:"sad" firestore:"sad"`
}

// Notice is a normalized notice document. All timestamps are time.Time
// regardless of how the store represented them.
type Notice struct {
	ID              types.NoticeID     `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Timestamp       time.Time          `json:"timestamp"`
	Tag             string             `json:"tag,omitempty"`
	Category        types.Category     `json:"category,omitempty"`
	Location        string             `json:"location,omitempty"`
	Author          string             `json:"author,omitempty"`
	AuthorID        types.UserID       `json:"authorId,omitempty"`
	IsPinned        bool               `json:"isPinned"`
	Status          types.NoticeStatus `json:"status,omitempty"`
	AssignedOrg     string             `json:"assignedOrg,omitempty"`
	Reactions       *Reactions         `json:"reactions,omitempty"`
	CreatedAt       time.Time          `json:"createdAt,omitzero"`
	UpdatedAt       time.Time          `json:"updatedAt,omitzero"`
	StatusUpdatedAt time.Time          `json:"statusUpdatedAt,omitzero"`
	ExpirationDate  time.Time          `json:"expirationDate,omitzero"`
}

type Notices []*Notice

// EffectiveStatus treats a notice without status as pending.
func (x *Notice) EffectiveStatus() types.NoticeStatus {
	if x.Status == "" {
		return types.NoticeStatusPending
	}
	return x.Status
}

// IsAssigned reports whether an organization has claimed the notice.
func (x *Notice) IsAssigned() bool {
	return x.AssignedOrg != ""
}

// Age returns a humanized relative time such as "3 minutes ago".
func (x *Notice) Age(now time.Time) string {
	if x.Timestamp.IsZero() {
		return "Unknown"
	}
	return humanize.RelTime(x.Timestamp, now, "ago", "from now")
}

// FormatTimestamp renders a timestamp for display, "Unknown" when absent.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// PinnedFirst returns a copy with pinned notices first. Each partition is
// ordered by timestamp descending and equal timestamps keep input order.
func PinnedFirst(notices Notices) Notices {
	sorted := slices.Clone(notices)
	slices.SortStableFunc(sorted, func(a, b *Notice) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return b.Timestamp.Compare(a.Timestamp)
	})
	return sorted
}

// byTimestamp orders by timestamp; desc reverses the order.
func byTimestamp(desc bool) func(a, b *Notice) int {
	return func(a, b *Notice) int {
		if desc {
			return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
		}
		return cmp.Compare(a.Timestamp.UnixNano(), b.Timestamp.UnixNano())
	}
}

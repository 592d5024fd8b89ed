package types

import "github.com/m-mizutani/goerr/v2"

type NoticeStatus string

const (
	NoticeStatusPending   NoticeStatus = "pending"
	NoticeStatusOngoing   NoticeStatus = "ongoing"
	NoticeStatusCompleted NoticeStatus = "completed"
)

var noticeStatusLabels = map[NoticeStatus]string{
	NoticeStatusPending:   "🕒 Pending",
	NoticeStatusOngoing:   "🔧 Ongoing",
	NoticeStatusCompleted: "✅️ Completed",
}

func (s NoticeStatus) String() string {
	return string(s)
}

func (s NoticeStatus) Label() string {
	return noticeStatusLabels[s]
}

func (s NoticeStatus) Validate() error {
	switch s {
	case NoticeStatusPending, NoticeStatusOngoing, NoticeStatusCompleted:
		return nil
	}
	return goerr.New("invalid notice status", goerr.V("status", s))
}

// rank orders statuses along the lifecycle pending -> ongoing -> completed.
func (s NoticeStatus) rank() int {
	switch s {
	case NoticeStatusPending:
		return 0
	case NoticeStatusOngoing:
		return 1
	case NoticeStatusCompleted:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// monotonic. Staying in the same status is allowed.
func (s NoticeStatus) CanAdvanceTo(next NoticeStatus) bool {
	if next.Validate() != nil {
		return false
	}
	// documents written before status existed count as pending
	current := s
	if current == "" {
		current = NoticeStatusPending
	}
	return next.rank() >= current.rank()
}

type Category string

const (
	CategoryMaintenance  Category = "maintenance"
	CategoryComplaint    Category = "complaint"
	CategorySuggestion   Category = "suggestion"
	CategoryEvent        Category = "event"
	CategoryAnnouncement Category = "announcement"
	CategoryEmergency    Category = "emergency"
	CategoryOther        Category = "other"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{
	CategoryMaintenance,
	CategoryComplaint,
	CategorySuggestion,
	CategoryEvent,
	CategoryAnnouncement,
	CategoryEmergency,
	CategoryOther,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Validate() error {
	for _, v := range Categories {
		if c == v {
			return nil
		}
	}
	return goerr.New("invalid category", goerr.V("category", c))
}

// SortDirection of a notice query.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Validate() error {
	switch d {
	case SortAsc, SortDesc:
		return nil
	}
	return goerr.New("invalid sort direction", goerr.V("direction", d))
}

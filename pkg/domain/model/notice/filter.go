package notice

import (
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

type SortBy string

const (
	SortNewest SortBy = "newest"
	SortOldest SortBy = "oldest"
)

// FilterOptions is the view state of the notice list.
type FilterOptions struct {
	Tags       []string `json:"tags"`
	SortBy     SortBy   `json:"sortBy"`
	ShowPinned bool     `json:"showPinned"`
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{SortBy: SortNewest, ShowPinned: true}
}

// IsDefault reports whether no filter is active.
func (x FilterOptions) IsDefault() bool {
	return len(x.Tags) == 0 && x.SortBy == SortNewest && x.ShowPinned
}

func (x FilterOptions) Validate() error {
	switch x.SortBy {
	case SortNewest, SortOldest:
		return nil
	}
	return goerr.New("invalid sort order", goerr.V("sort_by", x.SortBy))
}

// Apply filters and orders notices for display without modifying the input.
// A tag matches the notice tag or its category, case-insensitively. When
// pinned notices are shown they are listed before the rest.
func (x FilterOptions) Apply(notices Notices) Notices {
	var result Notices
	for _, n := range notices {
		if !x.ShowPinned && n.IsPinned {
			continue
		}
		if len(x.Tags) > 0 && !x.matchTag(n) {
			continue
		}
		result = append(result, n)
	}

	slices.SortStableFunc(result, func(a, b *Notice) int {
		if x.ShowPinned && a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return byTimestamp(x.SortBy != SortOldest)(a, b)
	})
	return result
}

func (x FilterOptions) matchTag(n *Notice) bool {
	for _, tag := range x.Tags {
		if strings.EqualFold(tag, n.Tag) || strings.EqualFold(tag, n.Category.String()) {
			return true
		}
	}
	return false
}

// Query selects notices from the store. Empty fields do not constrain.
type Query struct {
	AuthorID       types.UserID        `json:"authorId,omitempty"`
	Category       types.Category      `json:"category,omitempty"`
	OrderByField   string              `json:"orderByField,omitempty"`
	OrderDirection types.SortDirection `json:"orderDirection,omitempty"`
}

const DefaultOrderField = "timestamp"

// WithDefaults fills the ordering with timestamp descending.
func (x Query) WithDefaults() Query {
	if x.OrderByField == "" {
		x.OrderByField = DefaultOrderField
	}
	if x.OrderDirection == "" {
		x.OrderDirection = types.SortDesc
	}
	return x
}

func (x Query) Validate() error {
	if x.Category != "" {
		if err := x.Category.Validate(); err != nil {
			return err
		}
	}
	if x.OrderDirection != "" {
		if err := x.OrderDirection.Validate(); err != nil {
			return err
		}
	}
	switch x.OrderByField {
	case "", "timestamp", "createdAt", "updatedAt", "title":
		return nil
	}
	return goerr.New("unsupported order field", goerr.V("field", x.OrderByField))
}

// Match reports whether n satisfies the query constraints.
func (x Query) Match(n *Notice) bool {
	if x.AuthorID != "" && n.AuthorID != x.AuthorID {
		return false
	}
	if x.Category != "" && n.Category != x.Category {
		return false
	}
	return true
}

// Sort orders notices in place by the query ordering.
func (x Query) Sort(notices Notices) {
	q := x.WithDefaults()
	desc := q.OrderDirection == types.SortDesc
	slices.SortStableFunc(notices, func(a, b *Notice) int {
		var c int
		switch q.OrderByField {
		case "createdAt":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "updatedAt":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case "title":
			c = strings.Compare(a.Title, b.Title)
		default:
			c = a.Timestamp.Compare(b.Timestamp)
		}
		if desc {
			return -c
		}
		return c
	})
}

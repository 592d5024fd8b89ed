package notice

import (
	"strings"

	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// ValidationErrors is the field error list produced by Form.Validate.
type ValidationErrors = errs.ValidationErrors

const (
	minTitleLength       = 5
	minDescriptionLength = 10
)

// Tags offered by the submission form. Tag is optional.
var Tags = []string{
	"Block A", "Block B", "Block C",
	"1st Floor", "2nd Floor", "3rd Floor",
	"Parking", "Common Area", "Garden",
}

// Form is the notice submission input.
type Form struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    types.Category `json:"category"`
	Location    string         `json:"location"`
	Tag         string         `json:"tag,omitempty"`
}

// Validate checks every field and returns all failures in field order.
func (x Form) Validate() ValidationErrors {
	var v ValidationErrors

	switch title := strings.TrimSpace(x.Title); {
	case title == "":
		v.Add("title", "Title is required")
	case len([]rune(title)) < minTitleLength:
		v.Add("title", "Title must be at least 5 characters")
	}

	switch desc := strings.TrimSpace(x.Description); {
	case desc == "":
		v.Add("description", "Description is required")
	case len([]rune(desc)) < minDescriptionLength:
		v.Add("description", "Description must be at least 10 characters")
	}

	if x.Category == "" {
		v.Add("category", "Category is required")
	} else if x.Category.Validate() != nil {
		v.Add("category", "Category is invalid")
	}

	if strings.TrimSpace(x.Location) == "" {
		v.Add("location", "Location is required")
	}

	return v
}

// Author identifies who submits a notice.
type Author struct {
	ID   types.UserID
	Name string
}

// NewNotice builds the document for a validated form with submission
// defaults: pending, not pinned and zero reactions. Timestamps are left to
// the store.
func (x Form) NewNotice(author Author) *Notice {
	return &Notice{
		ID:          types.NewNoticeID(),
		Title:       strings.TrimSpace(x.Title),
		Description: strings.TrimSpace(x.Description),
		Category:    x.Category,
		Location:    strings.TrimSpace(x.Location),
		Tag:         x.Tag,
		Author:      author.Name,
		AuthorID:    author.ID,
		Status:      types.NoticeStatusPending,
		IsPinned:    false,
		Reactions:   &Reactions{},
	}
}

package notice

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Record is a raw notice document as delivered by the store, keyed by the
// stored field names. Timestamp fields may hold any representation the
// store uses.
type Record map[string]any

// Timestamp fields converted by Normalize.
var timestampFields = []string{
	"timestamp",
	"createdAt",
	"updatedAt",
	"statusUpdatedAt",
	"expirationDate",
}

// ToTime converts a raw timestamp value into time.Time. Accepted forms are
// time.Time, *time.Time, *timestamppb.Timestamp, unix milliseconds as a
// number and RFC3339 strings. nil yields the zero time.
func ToTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}
		return *t, nil
	case *timestamppb.Timestamp:
		if t == nil {
			return time.Time{}, nil
		}
		if err := t.CheckValid(); err != nil {
			return time.Time{}, goerr.Wrap(err, "invalid protobuf timestamp")
		}
		return t.AsTime(), nil
	case int64:
		return time.UnixMilli(t), nil
	case int:
		return time.UnixMilli(int64(t)), nil
	case float64:
		return time.UnixMilli(int64(t)), nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, goerr.Wrap(err, "invalid timestamp string", goerr.V("value", t))
		}
		return parsed, nil
	}
	return time.Time{}, goerr.New("unsupported timestamp type", goerr.V("type", fmt.Sprintf("%T", v)))
}

// Normalize converts the record into a Notice with every timestamp field
// as time.Time.
func (x Record) Normalize(id types.NoticeID) (*Notice, error) {
	times := make(map[string]time.Time, len(timestampFields))
	for _, field := range timestampFields {
		t, err := ToTime(x[field])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to normalize notice",
				goerr.T(errs.TagDecode),
				goerr.TV(errutil.NoticeIDKey, id),
				goerr.TV(errutil.FieldKey, field))
		}
		times[field] = t
	}

	n := &Notice{
		ID:              id,
		Title:           x.str("title"),
		Description:     x.str("description"),
		Timestamp:       times["timestamp"],
		Tag:             x.str("tag"),
		Category:        types.Category(x.str("category")),
		Location:        x.str("location"),
		Author:          x.str("author"),
		AuthorID:        types.UserID(x.str("authorId")),
		IsPinned:        x.bool("isPinned"),
		Status:          types.NoticeStatus(x.str("status")),
		AssignedOrg:     x.str("assignedOrg"),
		CreatedAt:       times["createdAt"],
		UpdatedAt:       times["updatedAt"],
		StatusUpdatedAt: times["statusUpdatedAt"],
		ExpirationDate:  times["expirationDate"],
	}

	if raw, ok := x["reactions"].(map[string]any); ok {
		n.Reactions = &Reactions{
			Likes:    toInt(raw["likes"]),
			ThumbsUp: toInt(raw["thumbsUp"]),
			Sad:      toInt(raw["sad"]),
		}
	}

	return n, nil
}

// NewRecord converts a notice into its stored field layout. Zero timestamps
// are omitted so the store can supply them.
func NewRecord(n *Notice) Record {
	r := Record{
		"title":       n.Title,
		"description": n.Description,
		"category":    string(n.Category),
		"location":    n.Location,
		"author":      n.Author,
		"authorId":    string(n.AuthorID),
		"isPinned":    n.IsPinned,
		"status":      string(n.Status),
	}
	if n.Tag != "" {
		r["tag"] = n.Tag
	}
	if n.AssignedOrg != "" {
		r["assignedOrg"] = n.AssignedOrg
	}
	if n.Reactions != nil {
		r["reactions"] = map[string]any{
			"likes":    int64(n.Reactions.Likes),
			"thumbsUp": int64(n.Reactions.ThumbsUp),
			"sad":      int64(n.Reactions.Sad),
		}
	}

	for field, t := range map[string]time.Time{
		"timestamp":       n.Timestamp,
		"createdAt":       n.CreatedAt,
		"updatedAt":       n.UpdatedAt,
		"statusUpdatedAt": n.StatusUpdatedAt,
		"expirationDate":  n.ExpirationDate,
	} {
		if !t.IsZero() {
			r[field] = t
		}
	}
	return r
}

func (x Record) str(key string) string {
	s, _ := x[key].(string)
	return s
}

func (x Record) bool(key string) bool {
	b, _ := x[key].(bool)
	return b
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

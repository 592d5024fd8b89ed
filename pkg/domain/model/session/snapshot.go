package session

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

// StorageKey is the durable local storage namespace for the snapshot.
const StorageKey = "notifyme-auth"

// Snapshot is the persisted form of a session. Its JSON keys are fixed:
// isAuthenticated, role and user.
type Snapshot struct {
	IsAuthenticated bool       `json:"isAuthenticated"`
	Role            types.Role `json:"role"`
	User            *User      `json:"user"`
	OrgName         string     `json:"orgName,omitempty"`
}

func (x Session) Snapshot() Snapshot {
	return Snapshot{
		IsAuthenticated: x.IsAuthenticated(),
		Role:            x.Role,
		User:            x.User,
		OrgName:         x.OrgName,
	}
}

// Session restores a session from the snapshot. A snapshot that breaks the
// session invariants is treated as anonymous.
func (x Snapshot) Session() Session {
	if !x.IsAuthenticated || x.User == nil || x.Role.Validate() != nil {
		return Anonymous()
	}
	user := *x.User
	return Session{
		Status:  StatusAuthenticated,
		Role:    x.Role,
		User:    &user,
		OrgName: x.OrgName,
	}
}

func (x Snapshot) Marshal() ([]byte, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal session snapshot")
	}
	return data, nil
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session snapshot")
	}
	return &snap, nil
}

package types

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// Role is the closed set of account roles. RoleNone is the role of an
// unauthenticated session and is serialized as JSON null.
type Role string

const (
	RoleNone    Role = ""
	RoleCitizen Role = "citizen"
	RoleOrg     Role = "org"
	RoleWarden  Role = "warden"
)

var roleLabels = map[Role]string{
	RoleCitizen: "Citizen",
	RoleOrg:     "Organization",
	RoleWarden:  "Warden",
}

func (x Role) String() string {
	return string(x)
}

func (x Role) Label() string {
	return roleLabels[x]
}

// Validate accepts only assignable roles. RoleNone is rejected.
func (x Role) Validate() error {
	switch x {
	case RoleCitizen, RoleOrg, RoleWarden:
		return nil
	case RoleNone:
		return goerr.New("role is required")
	}
	return goerr.New("invalid role", goerr.V("role", string(x)))
}

func (x Role) MarshalJSON() ([]byte, error) {
	if x == RoleNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(x))
}

func (x *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = RoleNone
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return goerr.Wrap(err, "failed to decode role")
	}

	role := Role(s)
	if role != RoleNone {
		if err := role.Validate(); err != nil {
			return err
		}
	}
	*x = role
	return nil
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if err := role.Validate(); err != nil {
		return RoleNone, err
	}
	return role, nil
}

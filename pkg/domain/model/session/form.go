package session

import (
	"regexp"
	"strings"

	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

func validateEmail(v *errs.ValidationErrors, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		v.Add("email", "Email is required")
	case !emailPattern.MatchString(email):
		v.Add("email", "Please enter a valid email address")
	}
}

// Validate checks the login form before any provider call.
func (x Credentials) Validate() errs.ValidationErrors {
	var v errs.ValidationErrors
	validateEmail(&v, x.Email)
	if x.Password == "" {
		v.Add("password", "Password is required")
	}
	return v
}

// RegisterForm is the sign-up input.
type RegisterForm struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"password" masq:"secret"`
	ConfirmPassword string     `json:"confirmPassword" masq:"secret"`
	Role            types.Role `json:"role"`
	OrgName         string     `json:"orgName,omitempty"`
}

func (x RegisterForm) Validate() errs.ValidationErrors {
	var v errs.ValidationErrors

	switch name := strings.TrimSpace(x.Name); {
	case name == "":
		v.Add("name", "Name is required")
	case len([]rune(name)) < minNameLength:
		v.Add("name", "Name must be at least 2 characters")
	}

	validateEmail(&v, x.Email)

	switch {
	case x.Password == "":
		v.Add("password", "Password is required")
	case len(x.Password) < minPasswordLength:
		v.Add("password", "Password must be at least 6 characters")
	}

	if x.Password != x.ConfirmPassword {
		v.Add("confirmPassword", "Passwords do not match")
	}

	if err := x.Role.Validate(); err != nil {
		v.Add("role", "Please select a valid role")
	} else if x.Role == types.RoleOrg && strings.TrimSpace(x.OrgName) == "" {
		v.Add("orgName", "Organization name is required")
	}

	return v
}

func (x RegisterForm) Credentials() Credentials {
	return Credentials{Email: strings.TrimSpace(x.Email), Password: x.Password}
}

// Profile builds the profile document for uid. OrgName is kept only for
// organization accounts.
func (x RegisterForm) Profile(uid types.UserID) Profile {
	p := Profile{
		UID:   uid,
		Email: strings.TrimSpace(x.Email),
		Name:  strings.TrimSpace(x.Name),
		Role:  x.Role,
	}
	if x.Role == types.RoleOrg {
		p.OrgName = strings.TrimSpace(x.OrgName)
	}
	return p
}

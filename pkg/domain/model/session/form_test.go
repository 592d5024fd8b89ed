package session_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

func TestCredentials_Validate(t *testing.T) {
	gt.A(t, session.Credentials{Email: "a@b.co", Password: "x"}.Validate()).Length(0)

	v := session.Credentials{}.Validate()
	gt.Equal(t, v.Get("email"), "Email is required")
	gt.Equal(t, v.Get("password"), "Password is required")

	v = session.Credentials{Email: "not-an-email", Password: "x"}.Validate()
	gt.Equal(t, v.Get("email"), "Please enter a valid email address")
}

func TestRegisterForm_Validate(t *testing.T) {
	valid := session.RegisterForm{
		Name:            "Bob",
		Email:           "bob@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            types.RoleCitizen,
	}
	gt.A(t, valid.Validate()).Length(0)

	t.Run("short name", func(t *testing.T) {
		f := valid
		f.Name = "B"
		gt.Equal(t, f.Validate().Get("name"), "Name must be at least 2 characters")
	})

	t.Run("short password", func(t *testing.T) {
		f := valid
		f.Password = "abc"
		f.ConfirmPassword = "abc"
		gt.Equal(t, f.Validate().Get("password"), "Password must be at least 6 characters")
	})

	t.Run("mismatch", func(t *testing.T) {
		f := valid
		f.ConfirmPassword = "secret2"
		gt.Equal(t, f.Validate().Get("confirmPassword"), "Passwords do not match")
	})

	t.Run("org requires name", func(t *testing.T) {
		f := valid
		f.Role = types.RoleOrg
		gt.Equal(t, f.Validate().Get("orgName"), "Organization name is required")

		f.OrgName = "Block A Committee"
		gt.A(t, f.Validate()).Length(0)
		gt.Equal(t, f.Profile("u9").OrgName, "Block A Committee")
	})

	t.Run("missing role", func(t *testing.T) {
		f := valid
		f.Role = types.RoleNone
		gt.Equal(t, f.Validate().Get("role"), "Please select a valid role")
	})

	t.Run("citizen drops org name", func(t *testing.T) {
		f := valid
		f.OrgName = "ignored"
		gt.Equal(t, f.Profile("u1").OrgName, "")
	})
}

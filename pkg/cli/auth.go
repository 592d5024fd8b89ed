package cli

import (
	"context"

	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdLogin() *cli.Command {
	var (
		app  appConfig
		cred session.Credentials
	)

	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: joinFlags([]cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Account email",
				Sources:     cli.EnvVars("NOTIFYME_EMAIL"),
				Destination: &cred.Email,
			},
			&cli.StringFlag{
				Name:        "password",
				Aliases:     []string{"p"},
				Usage:       "Account password",
				Sources:     cli.EnvVars("NOTIFYME_PASSWORD"),
				Destination: &cred.Password,
			},
		}, app.Flags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			current, err := rt.sessions.Login(ctx, cred)
			if err != nil {
				return err
			}
			printSession(w, *current)
			return nil
		},
	}
}

func cmdRegister() *cli.Command {
	var (
		app  appConfig
		form session.RegisterForm
		role string
	)

	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: joinFlags([]cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "Display name",
				Destination: &form.Name,
			},
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Account email",
				Sources:     cli.EnvVars("NOTIFYME_EMAIL"),
				Destination: &form.Email,
			},
			&cli.StringFlag{
				Name:        "password",
				Aliases:     []string{"p"},
				Usage:       "Account password (at least 6 characters)",
				Sources:     cli.EnvVars("NOTIFYME_PASSWORD"),
				Destination: &form.Password,
			},
			&cli.StringFlag{
				Name:        "role",
				Aliases:     []string{"r"},
				Usage:       "Account role [citizen|org|warden]",
				Value:       string(types.RoleCitizen),
				Destination: &role,
			},
			&cli.StringFlag{
				Name:        "org-name",
				Usage:       "Organization name, required for the org role",
				Destination: &form.OrgName,
			},
		}, app.Flags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			form.Role = types.Role(role)
			form.ConfirmPassword = form.Password

			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			current, err := rt.sessions.Register(ctx, form)
			if err != nil {
				return err
			}
			printSession(w, *current)
			return nil
		},
	}
}

func cmdLogout() *cli.Command {
	var app appConfig

	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and clear the stored session",
		Flags: app.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			defer rt.printToasts(w)()

			rt.sessions.Logout(ctx)
			return nil
		},
	}
}

func cmdWhoami() *cli.Command {
	var app appConfig

	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current session",
		Flags: app.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := app.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			printSession(cmd.Root().Writer, rt.sessions.Session())
			return nil
		},
	}
}

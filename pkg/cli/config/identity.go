package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/notifyme/pkg/adapter/identity"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/urfave/cli/v3"
)

// Identity selects the identity provider. Without an API key accounts
// live in process memory and vanish on exit.
type Identity struct {
	apiKey       string
	projectID    string
	emulatorHost string
}

func (x *Identity) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firebase-api-key",
			Usage:       "Firebase Web API key",
			Category:    "Identity",
			Destination: &x.apiKey,
			Sources:     cli.EnvVars("NOTIFYME_FIREBASE_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "firebase-project-id",
			Usage:       "Firebase project ID, defaults to the Firestore project",
			Category:    "Identity",
			Destination: &x.projectID,
			Sources:     cli.EnvVars("NOTIFYME_FIREBASE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firebase-auth-emulator-host",
			Usage:       "Firebase Authentication emulator host:port",
			Category:    "Identity",
			Destination: &x.emulatorHost,
			Sources:     cli.EnvVars("FIREBASE_AUTH_EMULATOR_HOST", "NOTIFYME_FIREBASE_AUTH_EMULATOR_HOST"),
		},
	}
}

func (x Identity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api_key.len", len(x.apiKey)),
		slog.String("project_id", x.projectID),
		slog.String("emulator_host", x.emulatorHost),
	)
}

func (x *Identity) IsConfigured() bool {
	return x.apiKey != ""
}

// Configure returns the identity provider and a closer. defaultProjectID
// is used when no Firebase project is given.
func (x *Identity) Configure(ctx context.Context, defaultProjectID string, storage interfaces.SessionStorage) (interfaces.IdentityProvider, func(), error) {
	if !x.IsConfigured() {
		return identity.NewMemory(), func() {}, nil
	}

	projectID := x.projectID
	if projectID == "" {
		projectID = defaultProjectID
	}

	provider, err := identity.NewFirebase(ctx, identity.FirebaseConfig{
		APIKey:       x.apiKey,
		ProjectID:    projectID,
		EmulatorHost: x.emulatorHost,
	}, storage)
	if err != nil {
		return nil, nil, err
	}
	return provider, provider.Close, nil
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/adapter/storage"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/urfave/cli/v3"
)

// Storage configures where the session snapshot and provider tokens are
// kept between runs.
type Storage struct {
	backend      string
	fileDir      string
	filePassword string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Session storage backend [auto|keychain|secret-service|wincred|pass|file|memory]",
			Category:    "Storage",
			Value:       "auto",
			Destination: &x.backend,
			Sources:     cli.EnvVars("NOTIFYME_STORAGE_BACKEND"),
		},
		&cli.StringFlag{
			Name:        "storage-file-dir",
			Usage:       "Directory of the file backend (default: ~/.config/notifyme)",
			Category:    "Storage",
			Destination: &x.fileDir,
			Sources:     cli.EnvVars("NOTIFYME_STORAGE_FILE_DIR"),
		},
		&cli.StringFlag{
			Name:        "storage-file-password",
			Usage:       "Password of the file backend",
			Category:    "Storage",
			Destination: &x.filePassword,
			Sources:     cli.EnvVars("NOTIFYME_STORAGE_FILE_PASSWORD"),
		},
	}
}

func (x *Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("file_dir", x.fileDir),
		slog.Int("file_password.len", len(x.filePassword)),
	)
}

var storageBackends = map[string]keyring.BackendType{
	"keychain":       keyring.KeychainBackend,
	"secret-service": keyring.SecretServiceBackend,
	"wincred":        keyring.WinCredBackend,
	"pass":           keyring.PassBackend,
	"file":           keyring.FileBackend,
}

func (x *Storage) Configure() (interfaces.SessionStorage, error) {
	switch x.backend {
	case "memory":
		return storage.NewMemory(), nil

	case "", "auto":
		return storage.NewKeyring(storage.KeyringConfig{
			FileDir:      x.dir(),
			FilePassword: x.filePassword,
		})
	}

	backend, ok := storageBackends[x.backend]
	if !ok {
		return nil, goerr.New("unknown storage backend", goerr.V("backend", x.backend))
	}
	return storage.NewKeyring(storage.KeyringConfig{
		Backends:     []keyring.BackendType{backend},
		FileDir:      x.dir(),
		FilePassword: x.filePassword,
	})
}

func (x *Storage) dir() string {
	if x.fileDir != "" {
		return x.fileDir
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "notifyme")
	}
	return ".notifyme"
}

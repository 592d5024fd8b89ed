package storage

import (
	"context"
	"errors"
	"io/fs"

	"github.com/99designs/keyring"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
)

const serviceName = "notifyme"

// Keyring stores session data in the OS keyring, falling back to an
// encrypted file under FileDir when no keyring service is available.
type Keyring struct {
	ring keyring.Keyring
}

var _ interfaces.SessionStorage = &Keyring{}

type KeyringConfig struct {
	// Backends restricts the allowed backends. Empty means all supported
	// backends with the file backend last.
	Backends     []keyring.BackendType
	FileDir      string
	FilePassword string `masq:"secret"`
}

var defaultBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.SecretServiceBackend,
	keyring.WinCredBackend,
	keyring.PassBackend,
	keyring.FileBackend,
}

func NewKeyring(cfg KeyringConfig) (*Keyring, error) {
	backends := cfg.Backends
	if len(backends) == 0 {
		backends = defaultBackends
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.FilePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open keyring", goerr.V("file_dir", cfg.FileDir))
	}

	return &Keyring{ring: ring}, nil
}

func (x *Keyring) Load(ctx context.Context, key string) ([]byte, error) {
	item, err := x.ring.Get(key)
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to load from keyring", goerr.TV(errutil.StorageKey, key))
	}
	return item.Data, nil
}

func (x *Keyring) Save(ctx context.Context, key string, data []byte) error {
	err := x.ring.Set(keyring.Item{
		Key:   key,
		Data:  data,
		Label: "notifyme " + key,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save to keyring", goerr.TV(errutil.StorageKey, key))
	}
	return nil
}

func (x *Keyring) Clear(ctx context.Context, key string) error {
	if err := x.ring.Remove(key); err != nil && !isMissing(err) {
		return goerr.Wrap(err, "failed to clear keyring entry", goerr.TV(errutil.StorageKey, key))
	}
	return nil
}

func isMissing(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist)
}

package storage_test

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/adapter/storage"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
)

func TestSessionStorage(t *testing.T) {
	testFn := func(t *testing.T, s interfaces.SessionStorage) {
		ctx := t.Context()

		data, err := s.Load(ctx, "notifyme-auth")
		gt.NoError(t, err)
		gt.Nil(t, data)

		gt.NoError(t, s.Save(ctx, "notifyme-auth", []byte(`{"isAuthenticated":false}`))).Required()
		data, err = s.Load(ctx, "notifyme-auth")
		gt.NoError(t, err)
		gt.Equal(t, string(data), `{"isAuthenticated":false}`)

		gt.NoError(t, s.Save(ctx, "notifyme-auth", []byte(`{}`))).Required()
		data, err = s.Load(ctx, "notifyme-auth")
		gt.NoError(t, err)
		gt.Equal(t, string(data), `{}`)

		gt.NoError(t, s.Clear(ctx, "notifyme-auth"))
		data, err = s.Load(ctx, "notifyme-auth")
		gt.NoError(t, err)
		gt.Nil(t, data)

		// clearing twice is fine
		gt.NoError(t, s.Clear(ctx, "notifyme-auth"))
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, storage.NewMemory())
	})

	t.Run("Keyring file backend", func(t *testing.T) {
		s, err := storage.NewKeyring(storage.KeyringConfig{
			Backends:     []keyring.BackendType{keyring.FileBackend},
			FileDir:      t.TempDir(),
			FilePassword: "test-password",
		})
		gt.NoError(t, err).Required()
		testFn(t, s)
	})
}

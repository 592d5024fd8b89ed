package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
)

// StorageKey is where the signed-in credential is persisted.
const StorageKey = "notifyme-identity"

type credential struct {
	UID          types.UserID `json:"uid"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName,omitempty"`
	IDToken      string       `json:"idToken" masq:"secret"`
	RefreshToken string       `json:"refreshToken" masq:"secret"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

func (x *credential) identity() *session.Identity {
	if x == nil {
		return nil
	}
	return &session.Identity{
		UID:         x.UID,
		Email:       x.Email,
		DisplayName: x.DisplayName,
	}
}

// expiresWithin reports whether the ID token expires before now+d.
func (x *credential) expiresWithin(now time.Time, d time.Duration) bool {
	return !x.ExpiresAt.After(now.Add(d))
}

func loadCredential(ctx context.Context, storage interfaces.SessionStorage) (*credential, error) {
	data, err := storage.Load(ctx, StorageKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load credential", goerr.TV(errutil.StorageKey, StorageKey))
	}
	if data == nil {
		return nil, nil
	}

	var cred credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, goerr.Wrap(err, "failed to decode credential", goerr.TV(errutil.StorageKey, StorageKey))
	}
	return &cred, nil
}

func saveCredential(ctx context.Context, storage interfaces.SessionStorage, cred *credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return goerr.Wrap(err, "failed to encode credential")
	}
	if err := storage.Save(ctx, StorageKey, data); err != nil {
		return goerr.Wrap(err, "failed to save credential", goerr.TV(errutil.StorageKey, StorageKey))
	}
	return nil
}

package errutil

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
)

var (
	// IDs
	NoticeIDKey       = goerr.NewTypedKey[types.NoticeID]("notice_id")
	NotificationIDKey = goerr.NewTypedKey[types.NotificationID]("notification_id")
	UserIDKey         = goerr.NewTypedKey[types.UserID]("user_id")

	// Values
	EmailKey      = goerr.NewTypedKey[string]("email")
	RoleKey       = goerr.NewTypedKey[types.Role]("role")
	StatusKey     = goerr.NewTypedKey[types.NoticeStatus]("status")
	OrgKey        = goerr.NewTypedKey[string]("org")
	FieldKey      = goerr.NewTypedKey[string]("field")
	CollectionKey = goerr.NewTypedKey[string]("collection")
	StorageKey    = goerr.NewTypedKey[string]("storage_key")
	RepositoryKey = goerr.NewTypedKey[string]("repository")

	// External services
	EndpointKey = goerr.NewTypedKey[string]("endpoint")
	ProviderKey = goerr.NewTypedKey[string]("provider")
)

package interfaces

import "context"

// SessionStorage is durable local key-value storage. Load returns nil data
// without error when key is absent.
type SessionStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

package identity

import (
	"context"
	"sync"

	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
)

// listeners is the registry of auth state handlers shared by providers.
type listeners struct {
	mu       sync.Mutex
	handlers map[int]interfaces.IdentityHandler
	nextID   int
}

func newListeners() *listeners {
	return &listeners{handlers: make(map[int]interfaces.IdentityHandler)}
}

func (x *listeners) add(handler interfaces.IdentityHandler) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	id := x.nextID
	x.nextID++
	x.handlers[id] = handler
	return id
}

func (x *listeners) remove(id int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.handlers, id)
}

func (x *listeners) get(id int) (interfaces.IdentityHandler, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	h, ok := x.handlers[id]
	return h, ok
}

// emit calls every handler outside the lock.
func (x *listeners) emit(ctx context.Context, identity *session.Identity) {
	x.mu.Lock()
	handlers := make([]interfaces.IdentityHandler, 0, len(x.handlers))
	for _, h := range x.handlers {
		handlers = append(handlers, h)
	}
	x.mu.Unlock()

	for _, h := range handlers {
		safe.Call(ctx, "auth_state", func() { h(copyIdentity(identity)) })
	}
}

func copyIdentity(identity *session.Identity) *session.Identity {
	if identity == nil {
		return nil
	}
	copied := *identity
	return &copied
}

package safe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/secmon-lab/notifyme/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("Failed to close",
			slog.String("resource", fmt.Sprintf("%T", closer)),
			logging.ErrAttr(err),
		)
	}
}

// Call runs a subscriber callback. A panic is logged, not propagated.
func Call(ctx context.Context, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Error("Callback panicked", slog.String("callback", name), slog.Any("panic", r))
		}
	}()
	fn()
}

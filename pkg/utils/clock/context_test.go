package clock_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
)

func TestClock(t *testing.T) {
	t.Run("fixed clock is used from context", func(t *testing.T) {
		now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		ctx := clock.With(t.Context(), clock.Fixed(now))
		gt.Equal(t, clock.Now(ctx), now)
		gt.False(t, clock.Now(clock.With(ctx, nil)).Equal(now))
	})

	t.Run("wall clock without context clock", func(t *testing.T) {
		before := time.Now()
		got := clock.Now(t.Context())
		gt.False(t, got.Before(before))
	})
}

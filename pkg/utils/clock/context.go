package clock

import (
	"context"
	"time"
)

type ctxClockKey struct{}

// Func reports the current time.
type Func func() time.Time

// With overrides the clock seen by Now for everything derived from ctx.
func With(ctx context.Context, fn Func) context.Context {
	return context.WithValue(ctx, ctxClockKey{}, fn)
}

// Now returns the context clock's time, or the wall clock.
func Now(ctx context.Context) time.Time {
	if fn, ok := ctx.Value(ctxClockKey{}).(Func); ok && fn != nil {
		return fn()
	}
	return time.Now()
}

// Fixed always reports t.
func Fixed(t time.Time) Func {
	return func() time.Time { return t }
}

// Package locker provides per-resource mutual exclusion for the admission
// critical section. Every implementation bounds the wait and reports
// reservationserrors.ErrLockTimeout when the bound is exceeded.
package locker

import (
	"context"
	"time"
)

// Release ends the critical section. It is safe to call more than once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, resourceID string) (Release, error)
}

// waitContext bounds ctx by wait unless ctx already expires sooner.
func waitContext(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}

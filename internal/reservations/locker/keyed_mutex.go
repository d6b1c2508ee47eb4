package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
)

// KeyedMutex serializes callers per key inside one process. Unrelated keys
// never contend. Entries are dropped once nobody holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{
		slots: make(map[string]*slot),
		wait:  wait,
	}
}

func (k *KeyedMutex) Acquire(ctx context.Context, resourceID string) (Release, error) {
	s := k.ref(resourceID)

	waitCtx, cancel := waitContext(ctx, k.wait)
	defer cancel()

	select {
	case s.ch <- struct{}{}:
	case <-waitCtx.Done():
		k.unref(resourceID)
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: resource %s", reservationserrors.ErrLockTimeout, resourceID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.unref(resourceID)
		})
	}, nil
}

func (k *KeyedMutex) ref(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s := k.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex(time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := k.Acquire(context.Background(), "room-1")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most one holder, saw %d", maxInside)
	}
	if k.Len() != 0 {
		t.Errorf("expected no leftover slots, got %d", k.Len())
	}
}

func TestKeyedMutex_DifferentKeysDoNotContend(t *testing.T) {
	k := NewKeyedMutex(50 * time.Millisecond)

	releaseA, err := k.Acquire(context.Background(), "room-a")
	if err != nil {
		t.Fatalf("Acquire(room-a) error = %v", err)
	}
	defer releaseA()

	releaseB, err := k.Acquire(context.Background(), "room-b")
	if err != nil {
		t.Fatalf("Acquire(room-b) should not wait on room-a, got %v", err)
	}
	releaseB()
}

func TestKeyedMutex_TimesOut(t *testing.T) {
	k := NewKeyedMutex(20 * time.Millisecond)

	release, err := k.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	start := time.Now()
	_, err = k.Acquire(context.Background(), "room-1")
	if !errors.Is(err, reservationserrors.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait was not bounded: %s", elapsed)
	}
}

func TestKeyedMutex_ReleaseIsIdempotent(t *testing.T) {
	k := NewKeyedMutex(20 * time.Millisecond)

	release, err := k.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()

	release2, err := k.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("expected key to be free after release, got %v", err)
	}
	release2()
}

func TestKeyedMutex_CancelledContext(t *testing.T) {
	k := NewKeyedMutex(time.Second)

	release, err := k.Acquire(context.Background(), "room-1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.Acquire(ctx, "room-1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

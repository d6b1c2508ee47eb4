package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/repository"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

const (
	minPollInterval = 10 * time.Millisecond
	maxPollInterval = 200 * time.Millisecond
)

// MongoLocker holds leases in the Reservation_locks collection so several
// service replicas share one critical section per resource.
type MongoLocker struct {
	locks repository.ReservationLockRepository
	wait  time.Duration
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewMongoLocker(locks repository.ReservationLockRepository, wait, ttl time.Duration, log *logger.Logger) *MongoLocker {
	return &MongoLocker{
		locks: locks,
		wait:  wait,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

func (m *MongoLocker) Acquire(ctx context.Context, resourceID string) (Release, error) {
	waitCtx, cancel := waitContext(ctx, m.wait)
	defer cancel()

	lockID := "reservation:" + resourceID
	owner := uuid.NewString()
	delay := minPollInterval

	for {
		ok, err := m.locks.TryAcquire(waitCtx, &model.ReservationLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: m.now().UTC().Add(m.ttl),
		})
		if err != nil && waitCtx.Err() == nil {
			return nil, err
		}
		if ok {
			return m.release(lockID, owner), nil
		}

		select {
		case <-time.After(delay):
		case <-waitCtx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: resource %s", reservationserrors.ErrLockTimeout, resourceID)
		}
		if delay *= 2; delay > maxPollInterval {
			delay = maxPollInterval
		}
	}
}

// release uses a fresh context: the caller's may already be done, and a
// stuck lease would block the resource until its TTL.
func (m *MongoLocker) release(lockID, owner string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), m.wait)
			defer cancel()
			if err := m.locks.Release(ctx, lockID, owner); err != nil {
				m.log.Error("Failed to release reservation lock",
					"lock_id", lockID,
					"error", err,
				)
			}
		})
	}
}

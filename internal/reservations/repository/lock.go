package repository

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Reservation_locks"

// ReservationLockRepository stores leases on per-resource critical sections.
type ReservationLockRepository interface {
	// TryAcquire inserts the lease, or takes it over when the holder's lease
	// has expired. It reports false when someone else holds a live lease.
	TryAcquire(ctx context.Context, lock *model.ReservationLock) (bool, error)
	// Release deletes the lease if owner still holds it.
	Release(ctx context.Context, lockID, owner string) error
}

type mongoReservationLockRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		collection: db.Collection(LockCollectionName),
		now:        time.Now,
	}
}

func (r *mongoReservationLockRepository) TryAcquire(ctx context.Context, lock *model.ReservationLock) (bool, error) {
	now := r.now().UTC()
	lock.CreatedAt = now

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to insert reservation lock: %w", err)
	}

	// The TTL monitor only runs once a minute, so expired leases are taken over here.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"owner":      lock.Owner,
			"expires_at": lock.ExpiresAt,
			"created_at": now,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to take over reservation lock: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *mongoReservationLockRepository) Release(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release reservation lock: %w", err)
	}
	return nil
}

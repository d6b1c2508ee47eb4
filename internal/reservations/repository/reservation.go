package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName      = "Reservations"
	GuardCollectionName = "Resource_guards"
)

type ReservationRepository interface {
	// FindActiveOverlapping returns the active reservations of resourceID
	// whose interval overlaps interval, skipping excludeID.
	FindActiveOverlapping(ctx context.Context, resourceID string, interval model.Interval, excludeID string) ([]*model.Reservation, error)
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, reservation *model.Reservation) error
	FindByResource(ctx context.Context, resourceID string, status *model.Status) ([]*model.Reservation, error)
	FindElapsedConfirmed(ctx context.Context, today model.Date, limit int) ([]*model.Reservation, error)
	// Guard marks resourceID as written by the current transaction so that two
	// transactions admitting into the same resource conflict at commit.
	Guard(ctx context.Context, resourceID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type reservationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ResourceID  string             `bson:"resource_id"`
	RequesterID string             `bson:"requester_id"`
	StartDate   time.Time          `bson:"start_date"`
	EndDate     time.Time          `bson:"end_date"`
	PartySize   int                `bson:"party_size"`
	FinalPrice  float64            `bson:"final_price"`
	Note        string             `bson:"note,omitempty"`
	Status      int                `bson:"status"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toDocument(r *model.Reservation) reservationDocument {
	return reservationDocument{
		ResourceID:  r.ResourceID,
		RequesterID: r.RequesterID,
		StartDate:   r.StartDate.Time(),
		EndDate:     r.EndDate.Time(),
		PartySize:   r.PartySize,
		FinalPrice:  r.FinalPrice,
		Note:        r.Note,
		Status:      int(r.Status()),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (d reservationDocument) toModel() *model.Reservation {
	return model.RestoreReservation(model.Reservation{
		ID:          d.ID.Hex(),
		ResourceID:  d.ResourceID,
		RequesterID: d.RequesterID,
		StartDate:   model.DateOf(d.StartDate),
		EndDate:     model.DateOf(d.EndDate),
		PartySize:   d.PartySize,
		FinalPrice:  d.FinalPrice,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, model.Status(d.Status))
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	guards     *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		guards:     db.Collection(GuardCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext cannot be wrapped without losing the transaction.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

// OverlapFilter builds the query matching active reservations of resourceID
// that overlap interval under policy.
func OverlapFilter(resourceID string, interval model.Interval, policy model.OverlapPolicy, exclude *primitive.ObjectID) bson.M {
	startOp, endOp := "$lte", "$gte"
	if policy == model.HalfOpen {
		startOp, endOp = "$lt", "$gt"
	}

	filter := bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": model.ActiveStatusCodes()},
		"start_date":  bson.M{startOp: interval.End.Time()},
		"end_date":    bson.M{endOp: interval.Start.Time()},
	}
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	return filter
}

func (r *mongoReservationRepository) FindActiveOverlapping(ctx context.Context, resourceID string, interval model.Interval, excludeID string) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var exclude *primitive.ObjectID
	if excludeID != "" {
		oid, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, excludeID)
		}
		exclude = &oid
	}

	filter := OverlapFilter(resourceID, interval, r.cfg.OverlapPolicy, exclude)
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := toDocument(reservation)
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongotx.IsWriteConflict(err) {
			return fmt.Errorf("%w: %v", reservationserrors.ErrWriteConflict, err)
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var doc reservationDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return doc.toModel(), nil
}

func (r *mongoReservationRepository) Update(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(reservation.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, reservation.ID)
	}

	update := bson.M{
		"$set": bson.M{
			"start_date": reservation.StartDate.Time(),
			"end_date":   reservation.EndDate.Time(),
			"party_size": reservation.PartySize,
			"status":     int(reservation.Status()),
			"updated_at": reservation.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongotx.IsWriteConflict(err) {
			return fmt.Errorf("%w: %v", reservationserrors.ErrWriteConflict, err)
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) FindByResource(ctx context.Context, resourceID string, status *model.Status) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"resource_id": resourceID}
	if status != nil {
		filter["status"] = int(*status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoReservationRepository) FindElapsedConfirmed(ctx context.Context, today model.Date, limit int) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   int(model.StatusConfirmed),
		"end_date": bson.M{"$lte": today.Time()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "end_date", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *mongoReservationRepository) Guard(ctx context.Context, resourceID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.guards.UpdateOne(ctx,
		bson.M{"_id": resourceID},
		bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"touched_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return guardError(resourceID, err)
}

// guardError maps a failed guard upsert. Two first-time upserts of the same
// guard race on the _id index, and the loser sees a duplicate key instead of
// a write conflict.
func guardError(resourceID string, err error) error {
	if err == nil {
		return nil
	}
	if mongotx.IsWriteConflict(err) || mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", reservationserrors.ErrWriteConflict, err)
	}
	return fmt.Errorf("failed to guard resource %s: %w", resourceID, err)
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reservationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	reservations := make([]*model.Reservation, 0, len(docs))
	for _, d := range docs {
		reservations = append(reservations, d.toModel())
	}
	return reservations, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	err := r.txManager.ExecuteTransaction(ctx, fn)
	if err != nil && mongotx.IsWriteConflict(err) {
		return fmt.Errorf("%w: %v", reservationserrors.ErrWriteConflict, err)
	}
	return err
}

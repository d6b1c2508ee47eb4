package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var base = model.NewDate(2030, 5, 1)

func newReservation(resourceID string, start, end int) *model.Reservation {
	party := 2
	return model.NewReservation(model.ReservationRequest{
		ResourceID:  resourceID,
		RequesterID: "guest",
		StartDate:   base.AddDays(start),
		EndDate:     base.AddDays(end),
		PartySize:   &party,
	}, time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC))
}

func TestMemoryRepository_CreateAndFind(t *testing.T) {
	repo := NewMemoryRepository(model.Closed)
	ctx := context.Background()

	r := newReservation("room-1", 0, 3)
	if err := repo.Create(ctx, r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected an id to be assigned")
	}

	got, err := repo.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	got.PartySize = 99
	again, _ := repo.FindByID(ctx, r.ID)
	if again.PartySize == 99 {
		t.Error("FindByID must return a copy")
	}

	if _, err := repo.FindByID(ctx, "unknown"); !errors.Is(err, reservationserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindActiveOverlapping(t *testing.T) {
	repo := NewMemoryRepository(model.Closed)
	ctx := context.Background()

	a := newReservation("room-1", 5, 10)
	b := newReservation("room-1", 20, 25)
	other := newReservation("room-2", 5, 10)
	for _, r := range []*model.Reservation{a, b, other} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	q := model.NewInterval(base.AddDays(10), base.AddDays(20))
	got, err := repo.FindActiveOverlapping(ctx, "room-1", q, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both endpoints to touch, got %d", len(got))
	}

	got, _ = repo.FindActiveOverlapping(ctx, "room-1", q, a.ID)
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("excludeID not honoured: %v", got)
	}

	got, _ = repo.FindActiveOverlapping(ctx, "room-3", q, "")
	if len(got) != 0 {
		t.Errorf("unknown resource should have no conflicts")
	}
}

func TestMemoryRepository_UpdateReindexes(t *testing.T) {
	repo := NewMemoryRepository(model.Closed)
	ctx := context.Background()
	today := base

	r := newReservation("room-1", 5, 10)
	if err := repo.Create(ctx, r); err != nil {
		t.Fatal(err)
	}

	end := base.AddDays(30)
	if err := r.ApplyAmendment(model.ReservationAmendment{EndDate: &end}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, r); err != nil {
		t.Fatal(err)
	}
	late := model.NewInterval(base.AddDays(28), base.AddDays(29))
	if got, _ := repo.FindActiveOverlapping(ctx, "room-1", late, ""); len(got) != 1 {
		t.Errorf("amended interval not indexed")
	}

	if err := r.Transition(model.StatusCancelled, today, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, r); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.FindActiveOverlapping(ctx, "room-1", late, ""); len(got) != 0 {
		t.Errorf("cancelled reservation still indexed")
	}

	ghost := newReservation("room-1", 1, 2)
	ghost.ID = "ghost"
	if err := repo.Update(ctx, ghost); !errors.Is(err, reservationserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_FindElapsedConfirmed(t *testing.T) {
	repo := NewMemoryRepository(model.Closed)
	ctx := context.Background()
	now := time.Now()

	done := newReservation("room-1", 0, 2)
	later := newReservation("room-2", 0, 9)
	pending := newReservation("room-3", 0, 1)
	for _, r := range []*model.Reservation{done, later} {
		if err := r.Transition(model.StatusConfirmed, base, now); err != nil {
			t.Fatal(err)
		}
	}
	for _, r := range []*model.Reservation{done, later, pending} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	before, err := repo.FindElapsedConfirmed(ctx, base.AddDays(1), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 0 {
		t.Errorf("nothing has reached its check-out day yet, got %v", before)
	}

	got, err := repo.FindElapsedConfirmed(ctx, base.AddDays(2), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != done.ID {
		t.Errorf("the check-out day itself is elapsed: FindElapsedConfirmed() = %v", got)
	}
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryRepository(model.Closed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Create(ctx, newReservation("room-1", 0, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOverlapFilter(t *testing.T) {
	q := model.NewInterval(base, base.AddDays(3))
	oid := primitive.NewObjectID()

	closed := OverlapFilter("room-1", q, model.Closed, &oid)
	if _, ok := closed["start_date"].(bson.M)["$lte"]; !ok {
		t.Errorf("closed filter should use $lte on start_date: %v", closed)
	}
	if _, ok := closed["end_date"].(bson.M)["$gte"]; !ok {
		t.Errorf("closed filter should use $gte on end_date: %v", closed)
	}
	if closed["_id"].(bson.M)["$ne"] != oid {
		t.Errorf("expected exclusion of %s", oid.Hex())
	}

	halfOpen := OverlapFilter("room-1", q, model.HalfOpen, nil)
	if _, ok := halfOpen["start_date"].(bson.M)["$lt"]; !ok {
		t.Errorf("half-open filter should use $lt on start_date: %v", halfOpen)
	}
	if _, ok := halfOpen["_id"]; ok {
		t.Error("no exclusion expected")
	}
	codes := halfOpen["status"].(bson.M)["$in"].([]int)
	if len(codes) != 3 {
		t.Errorf("expected three active codes, got %v", codes)
	}
}

func TestGuardError(t *testing.T) {
	duplicate := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "write conflict", err: mongo.CommandError{Code: 112, Name: "WriteConflict"}, conflict: true},
		{name: "transient transaction", err: mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}, conflict: true},
		{name: "concurrent first upsert", err: duplicate, conflict: true},
		{name: "network failure", err: errors.New("connection reset"), conflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardError("room-1", tt.err)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, reservationserrors.ErrWriteConflict); got != tt.conflict {
				t.Errorf("write conflict = %v, want %v (%v)", got, tt.conflict, err)
			}
		})
	}

	if err := guardError("room-1", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestDocumentRoundTripKeepsStatus(t *testing.T) {
	r := newReservation("room-1", 0, 2)
	if err := r.Transition(model.StatusConfirmed, base, time.Now()); err != nil {
		t.Fatal(err)
	}
	doc := toDocument(r)
	doc.ID = primitive.NewObjectID()

	back := doc.toModel()
	if back.Status() != model.StatusConfirmed || doc.Status != 1 {
		t.Errorf("status not preserved: doc=%d model=%s", doc.Status, back.Status())
	}
	if !back.StartDate.Equal(r.StartDate) || !back.EndDate.Equal(r.EndDate) {
		t.Errorf("dates not preserved")
	}
}

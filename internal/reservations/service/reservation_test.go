package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/events"
	"staybook/internal/reservations/locker"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/validator"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

var clockStart = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

func day(n int) model.Date {
	return model.DateOf(clockStart).AddDays(n)
}

func intPtr(n int) *int { return &n }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockResourceLookup struct {
	lookupFunc func(ctx context.Context, resourceID string) (*model.Listing, error)
}

func (m *mockResourceLookup) Lookup(ctx context.Context, resourceID string) (*model.Listing, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, resourceID)
	}
	return &model.Listing{ID: resourceID}, nil
}

type mockLocker struct {
	acquireFunc func(ctx context.Context, resourceID string) (locker.Release, error)
	calls       int
}

func (m *mockLocker) Acquire(ctx context.Context, resourceID string) (locker.Release, error) {
	m.calls++
	return m.acquireFunc(ctx, resourceID)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *reservationService
	repo      *repository.MemoryRepository
	clock     *testClock
	publisher *recordingPublisher
}

func newFixture(policy model.OverlapPolicy) *fixture {
	log := logger.Nop()
	cfg := &config.Config{
		Log:           log,
		Location:      time.UTC,
		OverlapPolicy: policy,
	}
	repo := repository.NewMemoryRepository(policy)
	clock := &testClock{now: clockStart}
	publisher := &recordingPublisher{}

	svc := NewReservationService(
		repo,
		locker.NewKeyedMutex(time.Second),
		validator.NewReservationValidator(repo, log),
		&mockResourceLookup{},
		publisher,
		cfg,
	).(*reservationService)
	svc.now = clock.Now

	return &fixture{svc: svc, repo: repo, clock: clock, publisher: publisher}
}

func request(resourceID string, start, end model.Date) *model.ReservationRequest {
	return &model.ReservationRequest{
		ResourceID:  resourceID,
		RequesterID: "guest-1",
		StartDate:   start,
		EndDate:     end,
		PartySize:   intPtr(2),
		FinalPrice:  300,
	}
}

func violationsOf(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	v, ok := appErr.Details["violations"].(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected violations in details, got %v", appErr.Details)
	}
	return v
}

func TestAdmit_OverlapScenario(t *testing.T) {
	tests := []struct {
		name       string
		policy     model.OverlapPolicy
		start, end int
		wantAdmit  bool
	}{
		{"nested inside existing", model.Closed, 6, 9, false},
		{"shares end day under closed", model.Closed, 10, 15, false},
		{"day after end", model.Closed, 11, 15, true},
		{"shares end day under half open", model.HalfOpen, 10, 15, true},
		{"nested under half open", model.HalfOpen, 6, 9, false},
		{"ends on existing start under closed", model.Closed, 1, 5, false},
		{"ends on existing start under half open", model.HalfOpen, 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.policy)
			ctx := context.Background()

			if _, err := f.svc.Admit(ctx, request("room-x", day(5), day(10))); err != nil {
				t.Fatalf("seed admit failed: %v", err)
			}

			got, err := f.svc.Admit(ctx, request("room-x", day(tt.start), day(tt.end)))
			if tt.wantAdmit {
				if err != nil {
					t.Fatalf("expected admission, got %v", err)
				}
				if got.Status() != model.StatusPending {
					t.Errorf("new reservation status = %s, want pending", got.Status())
				}
				return
			}

			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation failure, got %v", err)
			}
			if !violationsOf(t, err).HasOverlap() {
				t.Errorf("expected overlap violation")
			}
		})
	}
}

func TestAdmit_ReportsAllViolationsInOrder(t *testing.T) {
	f := newFixture(model.Closed)

	req := &model.ReservationRequest{ResourceID: "room-1", RequesterID: "guest-1"}
	_, err := f.svc.Admit(context.Background(), req)

	got := violationsOf(t, err).Messages()
	want := []string{"start_date is required", "end_date is required", "party_size is required"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestAdmit_PastStartAndOverlapTogether(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	// Seeded while "today" was earlier, so its start is now in the past.
	f.clock.now = clockStart.AddDate(0, 0, -10)
	if _, err := f.svc.Admit(ctx, request("room-1", day(-5), day(3))); err != nil {
		t.Fatal(err)
	}
	f.clock.now = clockStart

	_, err := f.svc.Admit(ctx, request("room-1", day(-2), day(2)))
	got := violationsOf(t, err).Messages()
	want := []string{validator.MsgStartInPast, validator.MsgAlreadyReserved}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestAdmit_InactiveStatusesDoNotBlock(t *testing.T) {
	for _, terminal := range []model.Status{model.StatusCancelled, model.StatusRejected} {
		t.Run(terminal.String(), func(t *testing.T) {
			f := newFixture(model.Closed)
			ctx := context.Background()

			first, err := f.svc.Admit(ctx, request("room-1", day(5), day(10)))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := f.svc.Transition(ctx, first.ID, terminal); err != nil {
				t.Fatalf("Transition(%s) error = %v", terminal, err)
			}

			if _, err := f.svc.Admit(ctx, request("room-1", day(5), day(10))); err != nil {
				t.Errorf("expected the freed interval to be admitted, got %v", err)
			}
		})
	}
}

func TestAdmit_CompletedStillBlocks(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	first, err := f.svc.Admit(ctx, request("room-1", day(1), day(3)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Transition(ctx, first.ID, model.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(3 * 24 * time.Hour)
	if _, err := f.svc.Transition(ctx, first.ID, model.StatusCompleted); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	// Start is today, so only the overlap can refuse it.
	_, err = f.svc.Admit(ctx, request("room-1", day(3), day(6)))
	if !apperrors.HasCode(err, apperrors.CodeValidation) || !violationsOf(t, err).HasOverlap() {
		t.Errorf("expected completed stay to keep blocking, got %v", err)
	}
}

func TestAdmit_ResourceLookup(t *testing.T) {
	f := newFixture(model.Closed)
	f.svc.resources = &mockResourceLookup{
		lookupFunc: func(ctx context.Context, resourceID string) (*model.Listing, error) {
			if resourceID == "missing" {
				return nil, reservationserrors.ErrResourceNotFound
			}
			return &model.Listing{ID: resourceID, MaxGuests: 4}, nil
		},
	}
	ctx := context.Background()

	_, err := f.svc.Admit(ctx, request("missing", day(1), day(2)))
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown resource, got %v", err)
	}

	req := request("room-1", day(1), day(2))
	req.PartySize = intPtr(5)
	_, err = f.svc.Admit(ctx, req)
	got := violationsOf(t, err).Messages()
	if len(got) != 1 || got[0] != "party_size must not exceed 4" {
		t.Errorf("messages = %v", got)
	}
}

func TestAdmit_ConcurrentIdenticalRequests(t *testing.T) {
	f := newFixture(model.Closed)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Admit(context.Background(), request("room-1", day(5), day(10)))
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if !apperrors.HasCode(err, apperrors.CodeValidation) && !apperrors.HasCode(err, apperrors.CodeConcurrencyConflict) {
			t.Errorf("unexpected failure kind: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one admission, got %d", successes)
	}
}

func TestAdmit_RandomizedNeverDoubleBooks(t *testing.T) {
	for _, policy := range []model.OverlapPolicy{model.Closed, model.HalfOpen} {
		t.Run(policy.String(), func(t *testing.T) {
			f := newFixture(policy)
			rng := rand.New(rand.NewSource(7))
			resources := []string{"a", "b", "c"}

			type job struct {
				resource   string
				start, end int
				cancel     bool
			}
			jobs := make([]job, 300)
			for i := range jobs {
				s := rng.Intn(60)
				jobs[i] = job{resources[rng.Intn(len(resources))], s, s + 1 + rng.Intn(6), rng.Intn(4) == 0}
			}

			var wg sync.WaitGroup
			for _, j := range jobs {
				wg.Add(1)
				go func(j job) {
					defer wg.Done()
					r, err := f.svc.Admit(context.Background(), request(j.resource, day(j.start), day(j.end)))
					if err == nil && j.cancel {
						_, _ = f.svc.Transition(context.Background(), r.ID, model.StatusCancelled)
					}
				}(j)
			}
			wg.Wait()

			for _, resource := range resources {
				all, err := f.svc.ListByResource(context.Background(), resource, nil)
				if err != nil {
					t.Fatal(err)
				}
				var active []*model.Reservation
				for _, r := range all {
					if r.Status().IsActive() {
						active = append(active, r)
					}
				}
				for i := 0; i < len(active); i++ {
					for k := i + 1; k < len(active); k++ {
						if policy.Overlaps(active[i].Interval(), active[k].Interval()) {
							t.Fatalf("resource %s double booked: %s and %s", resource, active[i].Interval(), active[k].Interval())
						}
					}
				}
			}
		})
	}
}

func TestAdmit_RetriesOnceThenReportsConflict(t *testing.T) {
	f := newFixture(model.Closed)
	ml := &mockLocker{acquireFunc: func(ctx context.Context, resourceID string) (locker.Release, error) {
		return nil, reservationserrors.ErrLockTimeout
	}}
	f.svc.locker = ml

	_, err := f.svc.Admit(context.Background(), request("room-1", day(1), day(2)))

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeConcurrencyConflict {
		t.Fatalf("expected CONCURRENCY_CONFLICT, got %v", err)
	}
	if !appErr.Retryable {
		t.Error("expected the conflict to be retryable")
	}
	if appErr.Message != validator.MsgAlreadyReserved {
		t.Errorf("message = %q", appErr.Message)
	}
	if ml.calls != maxAttempts {
		t.Errorf("lock attempts = %d, want %d", ml.calls, maxAttempts)
	}
}

type conflictOnceRepository struct {
	*repository.MemoryRepository
	mu       sync.Mutex
	failures int
}

func (r *conflictOnceRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return fmt.Errorf("%w: simulated", reservationserrors.ErrWriteConflict)
	}
	r.mu.Unlock()
	return r.MemoryRepository.Create(ctx, reservation)
}

func TestAdmit_RetriesAfterWriteConflict(t *testing.T) {
	f := newFixture(model.Closed)
	f.svc.repo = &conflictOnceRepository{MemoryRepository: f.repo, failures: 1}

	r, err := f.svc.Admit(context.Background(), request("room-1", day(1), day(2)))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if _, err := f.repo.FindByID(context.Background(), r.ID); err != nil {
		t.Errorf("reservation not persisted: %v", err)
	}
}

type stalledRepository struct {
	*repository.MemoryRepository
}

func (r *stalledRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	<-ctx.Done()
	return fmt.Errorf("transaction failed: %w", ctx.Err())
}

func TestAdmit_TransactionIsBounded(t *testing.T) {
	tests := []struct {
		name     string
		write    time.Duration
		lockTTL  time.Duration
		expected time.Duration
	}{
		{name: "write timeout", write: 40 * time.Millisecond, expected: 40 * time.Millisecond},
		{name: "lease shorter than write timeout", write: time.Minute, lockTTL: 30 * time.Millisecond, expected: 30 * time.Millisecond},
		{name: "nothing configured", expected: defaultTransactionTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(model.Closed)
			f.svc.cfg.WriteTimeout = tt.write
			f.svc.cfg.LockTTL = tt.lockTTL
			if got := f.svc.transactionTimeout(); got != tt.expected {
				t.Errorf("transactionTimeout() = %v, want %v", got, tt.expected)
			}
		})
	}

	f := newFixture(model.Closed)
	f.svc.cfg.WriteTimeout = 50 * time.Millisecond
	f.svc.repo = &stalledRepository{MemoryRepository: f.repo}

	started := time.Now()
	_, err := f.svc.Admit(context.Background(), request("room-1", day(1), day(2)))
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("admission blocked for %v", elapsed)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}

func TestAdmit_PersistsNothingOnFailure(t *testing.T) {
	f := newFixture(model.Closed)
	req := request("room-1", day(3), day(1))

	if _, err := f.svc.Admit(context.Background(), req); err == nil {
		t.Fatal("expected failure")
	}
	all, _ := f.repo.FindByResource(context.Background(), "room-1", nil)
	if len(all) != 0 {
		t.Errorf("expected nothing persisted, found %d", len(all))
	}
	if len(f.publisher.types()) != 0 {
		t.Errorf("expected no events, got %v", f.publisher.types())
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		path     []model.Status
		to       model.Status
		advance  int
		wantCode string
	}{
		{name: "confirm pending", to: model.StatusConfirmed},
		{name: "reject pending", to: model.StatusRejected},
		{name: "pending cannot complete", to: model.StatusCompleted, advance: 30, wantCode: apperrors.CodeInvalidTransition},
		{name: "completion waits for end date", path: []model.Status{model.StatusConfirmed}, to: model.StatusCompleted, wantCode: apperrors.CodeInvalidTransition},
		{name: "completion on end date", path: []model.Status{model.StatusConfirmed}, to: model.StatusCompleted, advance: 4},
		{name: "cancelled is terminal", path: []model.Status{model.StatusCancelled}, to: model.StatusConfirmed, wantCode: apperrors.CodeInvalidTransition},
		{name: "same status is a no-op", path: []model.Status{model.StatusConfirmed}, to: model.StatusConfirmed},
		{name: "unknown status", to: model.Status(9), wantCode: apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(model.Closed)
			ctx := context.Background()

			r, err := f.svc.Admit(ctx, request("room-1", day(1), day(4)))
			if err != nil {
				t.Fatal(err)
			}
			for _, step := range tt.path {
				if _, err := f.svc.Transition(ctx, r.ID, step); err != nil {
					t.Fatalf("setup transition to %s failed: %v", step, err)
				}
			}
			f.clock.Advance(time.Duration(tt.advance) * 24 * time.Hour)
			before, _ := f.repo.FindByID(ctx, r.ID)

			got, err := f.svc.Transition(ctx, r.ID, tt.to)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				after, _ := f.repo.FindByID(ctx, r.ID)
				if after.Status() != before.Status() {
					t.Errorf("status changed on failure: %s -> %s", before.Status(), after.Status())
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if got.Status() != tt.to {
				t.Errorf("status = %s, want %s", got.Status(), tt.to)
			}
		})
	}
}

func TestTransition_InvalidNamesBothStatuses(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	r, _ := f.svc.Admit(ctx, request("room-1", day(1), day(2)))
	_, err := f.svc.Transition(ctx, r.ID, model.StatusCompleted)

	appErr := apperrors.AsAppError(err)
	if appErr.Details["current"] != "pending" || appErr.Details["requested"] != "completed" {
		t.Errorf("details = %v", appErr.Details)
	}
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(model.Closed)
	_, err := f.svc.Transition(context.Background(), "nope", model.StatusConfirmed)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAmend(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	r, err := f.svc.Admit(ctx, request("room-1", day(5), day(10)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Admit(ctx, request("room-1", day(15), day(20))); err != nil {
		t.Fatal(err)
	}

	t.Run("overlapping only itself", func(t *testing.T) {
		end := day(12)
		got, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{EndDate: &end})
		if err != nil {
			t.Fatalf("Amend() error = %v", err)
		}
		if !got.EndDate.Equal(end) {
			t.Errorf("EndDate = %s", got.EndDate)
		}
	})

	t.Run("into another reservation", func(t *testing.T) {
		end := day(16)
		_, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{EndDate: &end})
		if !violationsOf(t, err).HasOverlap() {
			t.Errorf("expected overlap violation, got %v", err)
		}
		stored, _ := f.repo.FindByID(ctx, r.ID)
		if !stored.EndDate.Equal(day(12)) {
			t.Errorf("failed amendment changed stored end date to %s", stored.EndDate)
		}
	})

	t.Run("past start is not rechecked", func(t *testing.T) {
		f.clock.Advance(7 * 24 * time.Hour)
		defer func() { f.clock.now = clockStart }()

		_, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{PartySize: intPtr(3)})
		if err != nil {
			t.Errorf("expected amendment after start to pass, got %v", err)
		}
	})

	t.Run("party size must stay positive", func(t *testing.T) {
		_, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{PartySize: intPtr(0)})
		got := violationsOf(t, err).Messages()
		if len(got) != 1 || got[0] != "party_size must be greater than 0" {
			t.Errorf("messages = %v", got)
		}
	})

	t.Run("empty amendment", func(t *testing.T) {
		_, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{})
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Errorf("expected INVALID_INPUT, got %v", err)
		}
	})

	t.Run("only while pending", func(t *testing.T) {
		if _, err := f.svc.Transition(ctx, r.ID, model.StatusConfirmed); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{PartySize: intPtr(1)})
		if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			t.Errorf("expected INVALID_TRANSITION, got %v", err)
		}
	})
}

func TestEventsFollowCommits(t *testing.T) {
	f := newFixture(model.Closed)
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()

	r, err := f.svc.Admit(ctx, request("room-1", day(1), day(3)))
	if err != nil {
		t.Fatalf("publish failure must not undo the commit: %v", err)
	}
	party := 3
	if _, err := f.svc.Amend(ctx, r.ID, model.ReservationAmendment{PartySize: &party}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Transition(ctx, r.ID, model.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Transition(ctx, r.ID, model.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	got := fmt.Sprint(f.publisher.types())
	want := fmt.Sprint([]string{events.TypeCreated, events.TypeAmended, events.TypeStatusChanged})
	if got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestCompleteElapsed(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	ended, _ := f.svc.Admit(ctx, request("room-1", day(1), day(2)))
	running, _ := f.svc.Admit(ctx, request("room-2", day(1), day(10)))
	pending, _ := f.svc.Admit(ctx, request("room-3", day(1), day(2)))
	for _, r := range []*model.Reservation{ended, running} {
		if _, err := f.svc.Transition(ctx, r.ID, model.StatusConfirmed); err != nil {
			t.Fatal(err)
		}
	}

	f.clock.Advance(3 * 24 * time.Hour)
	n, err := f.svc.CompleteElapsed(ctx)
	if err != nil {
		t.Fatalf("CompleteElapsed() error = %v", err)
	}
	if n != 1 {
		t.Errorf("completed = %d, want 1", n)
	}

	want := map[string]model.Status{
		ended.ID:   model.StatusCompleted,
		running.ID: model.StatusConfirmed,
		pending.ID: model.StatusPending,
	}
	for id, status := range want {
		got, _ := f.svc.Get(ctx, id)
		if got.Status() != status {
			t.Errorf("%s status = %s, want %s", id, got.Status(), status)
		}
	}
}

func TestGetAndList(t *testing.T) {
	f := newFixture(model.Closed)
	ctx := context.Background()

	if _, err := f.svc.Get(ctx, "  "); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for blank id, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	a, _ := f.svc.Admit(ctx, request("room-1", day(8), day(9)))
	b, _ := f.svc.Admit(ctx, request("room-1", day(1), day(2)))
	if _, err := f.svc.Transition(ctx, b.ID, model.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	all, err := f.svc.ListByResource(ctx, "room-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != b.ID || all[1].ID != a.ID {
		t.Errorf("expected reservations ordered by start date")
	}

	confirmed := model.StatusConfirmed
	only, _ := f.svc.ListByResource(ctx, "room-1", &confirmed)
	if len(only) != 1 || only[0].ID != b.ID {
		t.Errorf("status filter returned %d reservations", len(only))
	}

	bogus := model.Status(42)
	if _, err := f.svc.ListByResource(ctx, "room-1", &bogus); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unknown status, got %v", err)
	}
}

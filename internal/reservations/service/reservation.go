package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/events"
	"staybook/internal/reservations/locker"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

const (
	// maxAttempts is the first try plus one bounded retry of the critical
	// section after a lock timeout or a commit conflict.
	maxAttempts        = 2
	completeBatchLimit = 100

	defaultTransactionTimeout = 15 * time.Second
)

type ReservationService interface {
	Admit(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error)
	Transition(ctx context.Context, id string, to model.Status) (*model.Reservation, error)
	Amend(ctx context.Context, id string, amendment model.ReservationAmendment) (*model.Reservation, error)
	Get(ctx context.Context, id string) (*model.Reservation, error)
	ListByResource(ctx context.Context, resourceID string, status *model.Status) ([]*model.Reservation, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// ResourceLookup resolves the rentable unit a reservation targets. It returns
// reservationserrors.ErrResourceNotFound for unknown ids.
type ResourceLookup interface {
	Lookup(ctx context.Context, resourceID string) (*model.Listing, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	locker    locker.Locker
	validator *validator.ReservationValidator
	resources ResourceLookup
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	locker locker.Locker,
	validator *validator.ReservationValidator,
	resources ResourceLookup,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &reservationService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		resources: resources,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reservationService) Admit(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Reservation request cannot be empty")
	}
	s.sanitize(req)
	if req.ResourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	maxGuests, err := s.capacity(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	var created *model.Reservation
	err = s.exclusive(ctx, req.ResourceID, func(txCtx context.Context) error {
		now := s.now()
		violations, err := s.validator.Validate(txCtx, req, validator.Options{
			Today:          s.cfg.Today(now),
			CheckPastStart: true,
			MaxPartySize:   maxGuests,
		})
		if err != nil {
			return apperrors.Internal("Failed to validate reservation", err)
		}
		if len(violations) > 0 {
			return validationFailure(violations)
		}

		reservation := model.NewReservation(*req, now.UTC())
		if err := s.repo.Guard(txCtx, req.ResourceID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return err
		}
		created = reservation
		return nil
	})
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = apperrors.Internal("Failed to create reservation", err)
		}
		s.logFailure("Failed to admit reservation", err, "resource_id", req.ResourceID, "requester_id", req.RequesterID)
		return nil, err
	}

	s.cfg.Log.FromContext(ctx).Info("Reservation admitted",
		"id", created.ID,
		"resource_id", created.ResourceID,
		"start_date", created.StartDate.String(),
		"end_date", created.EndDate.String(),
	)
	s.publish(ctx, events.Event{Type: events.TypeCreated, Reservation: created, OccurredAt: created.CreatedAt})
	return created, nil
}

func (s *reservationService) Transition(ctx context.Context, id string, to model.Status) (*model.Reservation, error) {
	id = sanitizer.NormalizeIdentifier(id)
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		updated  *model.Reservation
		previous model.Status
	)
	err = s.exclusive(ctx, current.ResourceID, func(txCtx context.Context) error {
		reservation, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		previous = reservation.Status()

		now := s.now()
		if err := reservation.Transition(to, s.cfg.Today(now), now.UTC()); err != nil {
			var invalid *model.InvalidTransitionError
			if errors.As(err, &invalid) {
				return apperrors.InvalidTransition(err.Error(), map[string]any{
					"current":   invalid.From.String(),
					"requested": invalid.To.String(),
				})
			}
			return apperrors.Internal("Failed to transition reservation", err)
		}
		updated = reservation
		if previous == to {
			return nil
		}

		if model.ReactivatesInterval(previous, to) {
			conflicts, err := s.repo.FindActiveOverlapping(txCtx, reservation.ResourceID, reservation.Interval(), reservation.ID)
			if err != nil {
				return apperrors.Internal("Failed to query conflict index", err)
			}
			if len(conflicts) > 0 {
				return validationFailure(validator.ValidationErrors{{Message: validator.MsgAlreadyReserved}})
			}
		}

		if err := s.repo.Guard(txCtx, reservation.ResourceID); err != nil {
			return err
		}
		return s.repo.Update(txCtx, reservation)
	})
	if err != nil {
		s.logFailure("Failed to transition reservation", err, "id", id, "requested", to.String())
		return nil, s.mapLookupError(err, id)
	}

	if previous != to {
		s.cfg.Log.FromContext(ctx).Info("Reservation status changed",
			"id", updated.ID,
			"resource_id", updated.ResourceID,
			"from", previous.String(),
			"to", to.String(),
		)
		s.publish(ctx, events.Event{
			Type:           events.TypeStatusChanged,
			Reservation:    updated,
			PreviousStatus: &previous,
			OccurredAt:     updated.UpdatedAt,
		})
	}
	return updated, nil
}

func (s *reservationService) Amend(ctx context.Context, id string, amendment model.ReservationAmendment) (*model.Reservation, error) {
	id = sanitizer.NormalizeIdentifier(id)
	if amendment.IsEmpty() {
		return nil, apperrors.InvalidInput("Amendment must change at least one of start_date, end_date, party_size")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	maxGuests, err := s.capacity(ctx, current.ResourceID)
	if err != nil {
		return nil, err
	}

	var updated *model.Reservation
	err = s.exclusive(ctx, current.ResourceID, func(txCtx context.Context) error {
		reservation, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		if reservation.Status() != model.StatusPending {
			return apperrors.InvalidTransition(model.ErrNotAmendable.Error(), map[string]any{
				"current": reservation.Status().String(),
			})
		}

		req := reservation.Merge(amendment).Request()
		now := s.now()
		violations, err := s.validator.Validate(txCtx, &req, validator.Options{
			Today:        s.cfg.Today(now),
			ExcludeID:    reservation.ID,
			MaxPartySize: maxGuests,
		})
		if err != nil {
			return apperrors.Internal("Failed to validate amendment", err)
		}
		if len(violations) > 0 {
			return validationFailure(violations)
		}

		if err := reservation.ApplyAmendment(amendment, now.UTC()); err != nil {
			return apperrors.Internal("Failed to amend reservation", err)
		}
		if err := s.repo.Guard(txCtx, reservation.ResourceID); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, reservation); err != nil {
			return err
		}
		updated = reservation
		return nil
	})
	if err != nil {
		s.logFailure("Failed to amend reservation", err, "id", id)
		return nil, s.mapLookupError(err, id)
	}

	s.cfg.Log.FromContext(ctx).Info("Reservation amended",
		"id", updated.ID,
		"resource_id", updated.ResourceID,
		"start_date", updated.StartDate.String(),
		"end_date", updated.EndDate.String(),
		"party_size", updated.PartySize,
	)
	s.publish(ctx, events.Event{Type: events.TypeAmended, Reservation: updated, OccurredAt: updated.UpdatedAt})
	return updated, nil
}

func (s *reservationService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	id = sanitizer.NormalizeIdentifier(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return reservation, nil
}

func (s *reservationService) ListByResource(ctx context.Context, resourceID string, status *model.Status) ([]*model.Reservation, error) {
	resourceID = sanitizer.NormalizeIdentifier(resourceID)
	if resourceID == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	if status != nil && !status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown reservation status %d", int(*status)))
	}

	reservations, err := s.repo.FindByResource(ctx, resourceID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "resource_id", resourceID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return reservations, nil
}

// CompleteElapsed moves every confirmed reservation whose stay has ended to
// completed. Each one goes through Transition, so the usual exclusivity and
// lifecycle rules apply. It returns how many were completed.
func (s *reservationService) CompleteElapsed(ctx context.Context) (int, error) {
	completed := 0
	for {
		today := s.cfg.Today(s.now())
		due, err := s.repo.FindElapsedConfirmed(ctx, today, completeBatchLimit)
		if err != nil {
			return completed, apperrors.Internal("Failed to find elapsed reservations", err)
		}

		progressed := 0
		for _, r := range due {
			if ctx.Err() != nil {
				return completed, ctx.Err()
			}
			if _, err := s.Transition(ctx, r.ID, model.StatusCompleted); err != nil {
				s.cfg.Log.Warn("Failed to complete elapsed reservation", "id", r.ID, "error", err)
				continue
			}
			progressed++
		}
		completed += progressed

		if len(due) < completeBatchLimit || progressed == 0 {
			return completed, nil
		}
	}
}

// exclusive runs fn inside the resource's critical section and a store
// transaction. Once the lock is held the work is detached from ctx's
// cancellation so it either commits or fails as a whole.
func (s *reservationService) exclusive(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.attempt(ctx, resourceID, fn)
		if !isContention(err) {
			return err
		}
		s.cfg.Log.FromContext(ctx).Warn("Reservation critical section contended",
			"resource_id", resourceID,
			"attempt", attempt,
			"error", err,
		)
	}
	return concurrencyConflict(resourceID, err)
}

func (s *reservationService) attempt(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	release, err := s.locker.Acquire(ctx, resourceID)
	if err != nil {
		return err
	}
	defer release()

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.transactionTimeout())
	defer cancel()

	err = s.repo.ExecuteTransaction(txCtx, fn)
	if err != nil && txCtx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || !apperrors.IsAppError(err)) {
		s.cfg.Log.FromContext(ctx).Error("Reservation transaction timed out",
			"resource_id", resourceID,
			"error", err,
		)
		return apperrors.Timeout("Reservation store did not respond in time")
	}
	return err
}

// transactionTimeout bounds the detached transaction. It never outlives the
// lock lease, so a stalled holder cannot overlap with the next one.
func (s *reservationService) transactionTimeout() time.Duration {
	timeout := s.cfg.WriteTimeout
	if s.cfg.LockTTL > 0 && (timeout <= 0 || s.cfg.LockTTL < timeout) {
		timeout = s.cfg.LockTTL
	}
	if timeout <= 0 {
		return defaultTransactionTimeout
	}
	return timeout
}

func (s *reservationService) find(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return reservation, nil
}

func (s *reservationService) capacity(ctx context.Context, resourceID string) (int, error) {
	if s.resources == nil {
		return 0, nil
	}
	listing, err := s.resources.Lookup(ctx, resourceID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrResourceNotFound) {
			return 0, apperrors.NotFoundWithID("Resource", resourceID)
		}
		s.cfg.Log.Error("Failed to look up resource", "resource_id", resourceID, "error", err)
		return 0, apperrors.Internal("Failed to look up resource", err)
	}
	return listing.MaxGuests, nil
}

func (s *reservationService) sanitize(req *model.ReservationRequest) {
	req.ResourceID = sanitizer.NormalizeIdentifier(req.ResourceID)
	req.RequesterID = sanitizer.NormalizeIdentifier(req.RequesterID)
	req.Note = sanitizer.NormalizeNote(req.Note)
}

func (s *reservationService) mapLookupError(err error, id string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	default:
		return apperrors.Internal("Failed to process reservation", err)
	}
}

func (s *reservationService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.FromContext(ctx).Error("Failed to publish reservation event",
			"type", event.Type,
			"id", event.Reservation.ID,
			"error", err,
		)
	}
}

func (s *reservationService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr := apperrors.AsAppError(err); appErr.StatusCode() < 500 {
		s.cfg.Log.Warn(msg, args...)
		return
	}
	s.cfg.Log.Error(msg, args...)
}

func isContention(err error) bool {
	return errors.Is(err, reservationserrors.ErrLockTimeout) || errors.Is(err, reservationserrors.ErrWriteConflict)
}

func validationFailure(violations validator.ValidationErrors) error {
	return apperrors.Validation("Reservation request is invalid", map[string]any{
		"violations": violations,
	})
}

// concurrencyConflict is reported with the overlap message: from the
// caller's side a lost race looks exactly like a taken date range.
func concurrencyConflict(resourceID string, cause error) error {
	return apperrors.ConcurrencyConflict(validator.MsgAlreadyReserved, cause).WithDetails(map[string]any{
		"resource_id": resourceID,
		"violations":  validator.ValidationErrors{{Message: validator.MsgAlreadyReserved}},
	})
}

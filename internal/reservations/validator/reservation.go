package validator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	MsgEndAfterStart   = "end must be after the start date"
	MsgStartInPast     = "start cannot be in the past"
	MsgAlreadyReserved = "this resource is already reserved for the selected dates"
)

type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Messages() []string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return messages
}

// HasOverlap reports whether the overlap check was among the failures.
func (v ValidationErrors) HasOverlap() bool {
	for _, err := range v {
		if err.Message == MsgAlreadyReserved {
			return true
		}
	}
	return false
}

func (v ValidationErrors) hasField(field string) bool {
	for _, err := range v {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ConflictIndex answers which active reservations of a resource overlap an
// interval. Results are only trustworthy inside the resource's critical section.
type ConflictIndex interface {
	FindActiveOverlapping(ctx context.Context, resourceID string, interval model.Interval, excludeID string) ([]*model.Reservation, error)
}

// Options tune one validation run.
type Options struct {
	// Today is the calendar day used by the non-past-start rule.
	Today model.Date
	// CheckPastStart is set on create only.
	CheckPastStart bool
	// ExcludeID is the reservation's own identity when amending.
	ExcludeID string
	// MaxPartySize is the resource's guest ceiling; zero means unknown.
	MaxPartySize int
}

type ReservationValidator struct {
	validate *validator.Validate
	index    ConflictIndex
	logger   *logger.Logger
}

func NewReservationValidator(index ConflictIndex, log *logger.Logger) *ReservationValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(model.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.String()
	}, model.Date{})

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		index:    index,
		logger:   log,
	}
}

// Validate runs every check and returns all violations in a fixed order:
// presence, numeric, capacity, chronology, past start, overlap. The overlap
// check only runs when every field is present, party_size is positive and the
// interval is valid. A non-nil error means the
// conflict index could not be consulted; the violations are then meaningless.
func (v *ReservationValidator) Validate(ctx context.Context, req *model.ReservationRequest, opts Options) (ValidationErrors, error) {
	presence, numeric, err := v.fieldChecks(req)
	if err != nil {
		return nil, err
	}

	violations := append(ValidationErrors{}, presence...)
	violations = append(violations, numeric...)
	// Only presence, party size and chronology gate the overlap check. Price
	// and note rules do not make the interval meaningless.
	wellFormed := len(presence) == 0 && !numeric.hasField("party_size")

	if opts.MaxPartySize > 0 && req.PartySize != nil && *req.PartySize > opts.MaxPartySize {
		violations = append(violations, ValidationError{
			Field:   "party_size",
			Message: fmt.Sprintf("party_size must not exceed %d", opts.MaxPartySize),
		})
	}

	interval := model.NewInterval(req.StartDate, req.EndDate)
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && !interval.Valid() {
		violations = append(violations, ValidationError{Field: "end_date", Message: MsgEndAfterStart})
		wellFormed = false
	}

	if opts.CheckPastStart && !req.StartDate.IsZero() && req.StartDate.Before(opts.Today) {
		violations = append(violations, ValidationError{Field: "start_date", Message: MsgStartInPast})
	}

	if wellFormed {
		conflicts, err := v.index.FindActiveOverlapping(ctx, req.ResourceID, interval, opts.ExcludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to query conflict index: %w", err)
		}
		if len(conflicts) > 0 {
			v.logger.Debug("Reservation overlaps active reservations",
				"resource_id", req.ResourceID,
				"interval", interval.String(),
				"conflicts", len(conflicts),
			)
			violations = append(violations, ValidationError{Message: MsgAlreadyReserved})
		}
	}

	if len(violations) == 0 {
		return nil, nil
	}
	return violations, nil
}

func (v *ReservationValidator) fieldChecks(req *model.ReservationRequest) (presence, other ValidationErrors, err error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return nil, nil, err
		}
		for _, fe := range validationErrs {
			translated := translate(fe)
			if fe.Tag() == "required" {
				presence = append(presence, translated)
			} else {
				other = append(other, translated)
			}
		}
	}
	return presence, other, nil
}

func translate(err validator.FieldError) ValidationError {
	message := err.Error()

	switch err.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", err.Field())
	case "gt":
		message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	}

	return ValidationError{
		Field:   err.Field(),
		Message: message,
	}
}

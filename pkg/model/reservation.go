package model

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotAmendable = errors.New("only pending reservations can be amended")

// Reservation is a claim on a resource for a date interval. Its status is only
// written through NewReservation, Transition and RestoreReservation.
type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	StartDate   Date
	EndDate     Date
	PartySize   int
	FinalPrice  float64
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	status Status
}

// ReservationRequest is the input of an admission decision.
type ReservationRequest struct {
	ResourceID  string  `json:"-"`
	RequesterID string  `json:"requester_id" validate:"required"`
	StartDate   Date    `json:"start_date" validate:"required"`
	EndDate     Date    `json:"end_date" validate:"required"`
	PartySize   *int    `json:"party_size" validate:"required,gt=0"`
	FinalPrice  float64 `json:"final_price" validate:"gte=0"`
	Note        string  `json:"note,omitempty" validate:"max=2000"`
}

// ReservationAmendment carries the fields that may change while a reservation is pending.
type ReservationAmendment struct {
	StartDate *Date `json:"start_date,omitempty"`
	EndDate   *Date `json:"end_date,omitempty"`
	PartySize *int  `json:"party_size,omitempty"`
}

func (a ReservationAmendment) IsEmpty() bool {
	return a.StartDate == nil && a.EndDate == nil && a.PartySize == nil
}

// NewReservation builds a pending reservation from an admitted request.
func NewReservation(req ReservationRequest, now time.Time) *Reservation {
	partySize := 0
	if req.PartySize != nil {
		partySize = *req.PartySize
	}
	return &Reservation{
		ResourceID:  req.ResourceID,
		RequesterID: req.RequesterID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		PartySize:   partySize,
		FinalPrice:  req.FinalPrice,
		Note:        req.Note,
		CreatedAt:   now,
		UpdatedAt:   now,
		status:      StatusPending,
	}
}

// RestoreReservation rebuilds a reservation from persisted state.
func RestoreReservation(r Reservation, status Status) *Reservation {
	r.status = status
	return &r
}

func (r *Reservation) Status() Status {
	return r.status
}

func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartDate, End: r.EndDate}
}

func (r *Reservation) Clone() *Reservation {
	c := *r
	return &c
}

// Request returns the reservation as an admission request, the shape amendments are validated in.
func (r *Reservation) Request() ReservationRequest {
	partySize := r.PartySize
	return ReservationRequest{
		ResourceID:  r.ResourceID,
		RequesterID: r.RequesterID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		PartySize:   &partySize,
		FinalPrice:  r.FinalPrice,
		Note:        r.Note,
	}
}

// Merge returns a copy of the reservation with the amendment applied.
// The receiver is not modified.
func (r *Reservation) Merge(a ReservationAmendment) *Reservation {
	merged := r.Clone()
	if a.StartDate != nil {
		merged.StartDate = *a.StartDate
	}
	if a.EndDate != nil {
		merged.EndDate = *a.EndDate
	}
	if a.PartySize != nil {
		merged.PartySize = *a.PartySize
	}
	return merged
}

// ApplyAmendment replaces the interval and party size. Only legal while pending.
func (r *Reservation) ApplyAmendment(a ReservationAmendment, now time.Time) error {
	if r.status != StatusPending {
		return ErrNotAmendable
	}
	merged := r.Merge(a)
	r.StartDate = merged.StartDate
	r.EndDate = merged.EndDate
	r.PartySize = merged.PartySize
	r.UpdatedAt = now
	return nil
}

type reservationJSON struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	RequesterID string    `json:"requester_id"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	Nights      int       `json:"nights"`
	PartySize   int       `json:"party_size"`
	Status      Status    `json:"status"`
	StatusName  string    `json:"status_name"`
	FinalPrice  float64   `json:"final_price"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Reservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(reservationJSON{
		ID:          r.ID,
		ResourceID:  r.ResourceID,
		RequesterID: r.RequesterID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Nights:      r.Interval().Nights(),
		PartySize:   r.PartySize,
		Status:      r.status,
		StatusName:  r.status.String(),
		FinalPrice:  r.FinalPrice,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
}

func (r *Reservation) UnmarshalJSON(data []byte) error {
	var v reservationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Reservation{
		ID:          v.ID,
		ResourceID:  v.ResourceID,
		RequesterID: v.RequesterID,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		PartySize:   v.PartySize,
		FinalPrice:  v.FinalPrice,
		Note:        v.Note,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		status:      v.Status,
	}
	return nil
}

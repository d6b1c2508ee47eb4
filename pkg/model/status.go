package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status codes are persisted and transmitted as integers; the mapping is fixed.
type Status int

const (
	StatusPending   Status = 0
	StatusConfirmed Status = 1
	StatusCancelled Status = 2
	StatusCompleted Status = 3
	StatusRejected  Status = 4
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusCancelled: "cancelled",
	StatusCompleted: "completed",
	StatusRejected:  "rejected",
}

// ActiveStatuses occupy calendar space for overlap purposes.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown reservation status %q", s)
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusRejected
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts either the integer code or the status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		status := Status(code)
		if !status.Valid() {
			return fmt.Errorf("unknown reservation status code %d", code)
		}
		*s = status
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status must be an integer code or a status name")
	}
	status, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

func ActiveStatusCodes() []int {
	codes := make([]int, 0, len(ActiveStatuses))
	for _, s := range ActiveStatuses {
		codes = append(codes, int(s))
	}
	return codes
}

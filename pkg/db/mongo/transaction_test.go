package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsWriteConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "write conflict code", err: mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}, expected: true},
		{name: "transient label", err: mongo.CommandError{Code: 251, Labels: []string{transientTransactionLabel}}, expected: true},
		{name: "wrapped", err: fmt.Errorf("transaction failed: %w", mongo.CommandError{Code: writeConflictCode}), expected: true},
		{name: "duplicate key", err: mongo.CommandError{Code: 11000}, expected: false},
		{name: "other label", err: mongo.CommandError{Code: 91, Labels: []string{"RetryableWriteError"}}, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
		{name: "nil", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWriteConflict(tt.err); got != tt.expected {
				t.Errorf("IsWriteConflict() = %v, want %v", got, tt.expected)
			}
		})
	}
}

package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "staybook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode         = 112
	transientTransactionLabel = "TransientTransactionError"
)

type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

// ExecuteTransaction runs fn inside a multi-document transaction. The driver
// retries fn on TransientTransactionError, so fn must be idempotent.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// IsWriteConflict reports whether err is a transaction conflict the caller
// may retry.
func IsWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorLabel(transientTransactionLabel) || se.HasErrorCode(writeConflictCode)
}

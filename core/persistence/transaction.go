package persistence

import (
	"context"
	"errors"
	"fmt"
)

// Transact runs fn inside a transaction started on interactor. The
// transaction is rolled back when fn fails and committed otherwise.
func Transact(ctx context.Context, interactor DatabaseInteractor, fn func(tx DatabaseInteractor) error) error {
	tx, err := interactor.StartTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

/*

This file manages the persistent global operation counter.
Every committed pool operation increments it, so the count survives restarts.

*/

package state

import (
	"context"
	"database/sql"
	"fmt"
)

func incrementOperationCount(ctx context.Context, tx *sql.Tx) (int64, error) {
	updateQuery := `
		UPDATE operation_counter
		SET current_operation = current_operation + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_operation;`

	var operation int64
	if err := tx.QueryRowContext(ctx, updateQuery).Scan(&operation); err != nil {
		return 0, fmt.Errorf("failed to increment operation counter: %w", err)
	}
	return operation, nil
}

// GetOperationCount returns how many operations have been committed.
func GetOperationCount(ctx context.Context) (int64, error) {
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	var count int64
	err := DB.QueryRowContext(ctx, `SELECT current_operation FROM operation_counter WHERE id = 1;`).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get operation count: %w", err)
	}
	return count, nil
}

// ./internal/state/parameters_store.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/elys-network/wamm/internal/types"
)

// FeeParametersRecord is one entry of the fee schedule history.
type FeeParametersRecord struct {
	ParamsID    int64               `json:"params_id"`
	OperationID string              `json:"operation_id"`
	Fees        types.FeeParameters `json:"fees"`
	ActivatedAt time.Time           `json:"activated_at"`
}

func insertFeeParameters(ctx context.Context, tx *sql.Tx, operationID string, fees types.FeeParameters) error {
	stmt := `
		INSERT INTO fee_parameters_history (operation_id, base_fee_bps, dynamic_fee_range_bps)
		VALUES ($1, $2, $3);
	`
	if _, err := tx.ExecContext(ctx, stmt, operationID, fees.BaseFeeBps, fees.DynamicFeeRangeBps); err != nil {
		return fmt.Errorf("failed to save fee parameters: %w", err)
	}
	return nil
}

// GetFeeHistory returns fee schedule changes, newest first.
func GetFeeHistory(ctx context.Context, limit int) ([]FeeParametersRecord, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}
	limit = clampLimit(limit)

	query := `
		SELECT params_id, operation_id, base_fee_bps, dynamic_fee_range_bps, activated_at
		FROM fee_parameters_history
		ORDER BY params_id DESC
		LIMIT $1;
	`
	rows, err := DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee history: %w", err)
	}
	defer rows.Close()

	var records []FeeParametersRecord
	for rows.Next() {
		var r FeeParametersRecord
		if err := rows.Scan(&r.ParamsID, &r.OperationID, &r.Fees.BaseFeeBps, &r.Fees.DynamicFeeRangeBps, &r.ActivatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fee history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ./internal/state/event_store.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/types"
)

// EventStore persists every committed pool event together with the pool
// snapshot it produced. It satisfies amm.EventSink.
type EventStore struct {
	logger zerolog.Logger
}

func NewEventStore() *EventStore {
	return &EventStore{logger: logger.GetForComponent("state_store")}
}

// Record writes the event, the snapshot and the operation counter in one transaction.
func (s *EventStore) Record(ctx context.Context, event types.Event, snapshot types.PoolSnapshot) (err error) {
	if DB == nil {
		return ErrDBNotInitialized
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback()
		}
	}()

	eventID, err := insertEvent(ctx, tx, event)
	if err != nil {
		return err
	}
	snapshotID, err := insertSnapshot(ctx, tx, event.OperationID, snapshot)
	if err != nil {
		return err
	}
	if event.Type == types.EventFeesUpdated && event.Fees != nil {
		if err = insertFeeParameters(ctx, tx, event.OperationID, *event.Fees); err != nil {
			return err
		}
	}
	operation, err := incrementOperationCount(ctx, tx)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event transaction: %w", err)
	}

	s.logger.Debug().
		Int64("event_id", eventID).
		Int64("snapshot_id", snapshotID).
		Int64("operation", operation).
		Str("type", string(event.Type)).
		Msg("Pool event persisted")
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event types.Event) (int64, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO pool_events (operation_id, event_type, event_timestamp, account, amounts, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING event_id;
	`
	var eventID int64
	err = tx.QueryRowContext(ctx, query,
		event.OperationID, string(event.Type), event.Timestamp, event.Account,
		pq.Array(intStrings(event.Amounts)), payload,
	).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to save pool event: %w", err)
	}
	return eventID, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, operationID string, snapshot types.PoolSnapshot) (int64, error) {
	stateJSON, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal pool snapshot: %w", err)
	}

	reserves := make([]sdkmath.Int, len(snapshot.Assets))
	weights := make([]sdkmath.Int, len(snapshot.Assets))
	for i, asset := range snapshot.Assets {
		reserves[i] = asset.Reserve
		weights[i] = asset.Weight
	}

	query := `
		INSERT INTO pool_snapshots (
			operation_id, total_shares, impermanent_loss_fund, reserves, weights, paused, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING snapshot_id;
	`
	var snapshotID int64
	err = tx.QueryRowContext(ctx, query,
		operationID, snapshot.TotalShares.String(), snapshot.ImpermanentLossFund.String(),
		pq.Array(intStrings(reserves)), pq.Array(intStrings(weights)), snapshot.Paused, stateJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save pool snapshot: %w", err)
	}
	return snapshotID, nil
}

// LoadLatestPoolSnapshot returns the most recent snapshot, or nil when none was ever saved.
func LoadLatestPoolSnapshot(ctx context.Context) (*types.PoolSnapshot, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	var stateJSON []byte
	err := DB.QueryRowContext(ctx, `SELECT state FROM pool_snapshots ORDER BY snapshot_id DESC LIMIT 1;`).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest pool snapshot: %w", err)
	}

	var snapshot types.PoolSnapshot
	if err := json.Unmarshal(stateJSON, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetRecentEvents returns the newest events first, optionally filtered by type.
func GetRecentEvents(ctx context.Context, limit int, eventType types.EventType) ([]types.Event, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}
	limit = clampLimit(limit)

	query := `
		SELECT payload FROM pool_events
		WHERE ($1 = '' OR event_type = $1)
		ORDER BY event_id DESC
		LIMIT $2;
	`
	rows, err := DB.QueryContext(ctx, query, string(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		var event types.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// GetEventCounts returns how many events of each type were recorded.
func GetEventCounts(ctx context.Context) (map[types.EventType]int, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	rows, err := DB.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM pool_events GROUP BY event_type;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.EventType]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[types.EventType(eventType)] = count
	}
	return counts, rows.Err()
}

func intStrings(values []sdkmath.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 10 // Default limit
	}
	return limit
}

package amm

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/types"
)

// EventSink receives every committed event together with the pool state it
// produced. Events are informational: a sink error is logged, never rolled back.
type EventSink interface {
	Record(ctx context.Context, event types.Event, snapshot types.PoolSnapshot) error
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: logger.GetForComponent("amm_events")}
}

func (s *LogSink) Record(_ context.Context, event types.Event, snapshot types.PoolSnapshot) error {
	s.logger.Info().
		Str("op_id", event.OperationID).
		Str("type", string(event.Type)).
		Str("account", event.Account).
		Str("totalShares", snapshot.TotalShares.String()).
		Str("ilFund", snapshot.ImpermanentLossFund.String()).
		Msg("Pool event")
	return nil
}

// MultiSink fans an event out to several sinks, in order.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, event types.Event, snapshot types.PoolSnapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, event, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

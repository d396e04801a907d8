package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// Process revalidates the batch and, when it is clean and non-empty, hands it
// to sink as one Submission.
//
// RETURNS:
//   - ErrEmptyBatch or an error wrapping ErrProcessBlocked; sink is not called.
//   - The sink's error, wrapped.
func (b *Batch) Process(ctx context.Context, sink Sink) error {
	b.Revalidate()

	if len(b.entries) == 0 {
		return ErrEmptyBatch
	}

	invalid := 0
	for _, e := range b.entries {
		if !e.Clean() {
			invalid++
		}
	}
	if invalid > 0 {
		b.logger.Warn("process blocked", "batch_id", b.id, "invalid_rows", invalid)
		return fmt.Errorf("%w (%d row(s) with errors)", ErrProcessBlocked, invalid)
	}

	sub := types.Submission{
		BatchID:     b.id,
		Profile:     b.schema.Name,
		Columns:     b.schema.Fields(),
		Rows:        b.Rows(),
		SubmittedAt: b.now(),
	}
	if err := sink.Submit(ctx, sub); err != nil {
		return fmt.Errorf("failed to submit batch: %w", err)
	}

	b.logger.Info("batch processed", "batch_id", b.id, "rows", len(sub.Rows))
	return nil
}

// LogSink writes a submission to a structured logger. It is the default sink
// when no backend is configured.
type LogSink struct {
	Logger *slog.Logger
}

// Submit logs the batch header and then each row.
func (s LogSink) Submit(ctx context.Context, sub types.Submission) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "processing batch",
		"batch_id", sub.BatchID,
		"profile", sub.Profile,
		"rows", len(sub.Rows),
	)
	for i, row := range sub.Rows {
		attrs := make([]any, 0, 2*len(sub.Columns)+2)
		attrs = append(attrs, "row", i+1)
		for _, col := range sub.Columns {
			attrs = append(attrs, col, row[col])
		}
		logger.InfoContext(ctx, "batch row", attrs...)
	}
	return nil
}

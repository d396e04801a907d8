package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// ImportRecords appends one row per decoded record and revalidates the whole
// batch. It returns the number of rows added.
func (b *Batch) ImportRecords(records []types.Record) int {
	rows := b.ingestor.IngestImported(records, b.id)
	for _, row := range rows {
		b.entries = append(b.entries, types.Entry{Row: row})
	}
	b.Revalidate()

	b.logger.Info("rows imported", "batch_id", b.id, "added", len(rows), "total", len(b.entries))
	return len(rows)
}

// ImportFrom decodes r with dec and appends the resulting rows.
//
// PARAMETERS:
//   - ctx: cancels the decode; checked again before rows are appended
//   - dec: the file decoder (xlsx, csv)
//   - r: the file contents; nil is a no-op
//
// RETURNS:
//   - The number of rows added.
//   - An error wrapping ErrDecode if decoding failed. The batch is unchanged.
func (b *Batch) ImportFrom(ctx context.Context, dec Decoder, r io.Reader) (int, error) {
	if r == nil {
		return 0, nil
	}

	records, err := dec.Decode(ctx, r)
	if err != nil {
		b.logger.Warn("import failed", "batch_id", b.id, "error", err)
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return b.ImportRecords(records), nil
}

// =============================================================================
// Payroll Batch Importer - Row Ingestor
// =============================================================================
//
// This module produces canonical rows. Rows come from two places:
//   1. Blank-row creation: every column gets its default.
//   2. Spreadsheet import: decoded records with loosely named headers are
//      mapped onto canonical columns by ordered column resolution.
//
// It also applies the per-field input transform used when a single field is
// edited (date digit grouping).
//
// DEFAULTS:
//   | Column default | Value                          |
//   |----------------|--------------------------------|
//   | text           | ""                             |
//   | today          | current date, YYYY-MM-DD       |
//   | generated      | fresh identifier (IDGenerator) |
//   | batch          | current batch identifier       |
//
// The ingestor never validates; callers run the validator on its output.
//
// =============================================================================

package ingest

import (
	"time"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// Ingestor builds canonical rows for one schema.
type Ingestor struct {
	schema    *schema.Schema
	now       func() time.Time
	newID     IDGenerator
	resolvers []Resolver
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithClock replaces the wall clock used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) { in.now = now }
}

// WithIDGenerator replaces the row identifier generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(in *Ingestor) { in.newID = gen }
}

// New creates an Ingestor for s.
func New(s *schema.Schema, opts ...Option) *Ingestor {
	in := &Ingestor{
		schema:    s,
		now:       time.Now,
		newID:     TransactionIDs(s.IDPrefix),
		resolvers: DefaultResolvers,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// CreateBlankRow returns a row with every column at its default.
// Each call is independent and generates fresh identifiers.
func (in *Ingestor) CreateBlankRow(batchID string) types.Row {
	today := Today(in.now())
	row := make(types.Row, len(in.schema.Columns)+1)
	for _, col := range in.schema.Columns {
		row[col.Key] = in.defaultValue(col, batchID, today)
	}
	row[in.schema.BatchField] = batchID
	return row
}

// IngestImported maps decoded records onto canonical rows, one per record,
// in input order. Every row gets batchID regardless of what the file holds.
func (in *Ingestor) IngestImported(records []types.Record, batchID string) []types.Row {
	today := Today(in.now())
	rows := make([]types.Row, 0, len(records))

	for _, rec := range records {
		row := make(types.Row, len(in.schema.Columns)+1)
		for _, col := range in.schema.Columns {
			if col.Key == in.schema.BatchField || col.Default == config.DefaultBatch {
				row[col.Key] = batchID
				continue
			}

			v, _, ok := Resolve(rec, col, in.resolvers)
			switch {
			case !ok:
				row[col.Key] = in.defaultValue(col, batchID, today)
			case col.IsDate():
				row[col.Key] = NormalizeDate(v)
			default:
				row[col.Key] = CellString(v)
			}
		}
		row[in.schema.BatchField] = batchID
		rows = append(rows, row)
	}

	return rows
}

// UpdateField returns a copy of row with field set to raw after the field's
// input transform. Only date columns have a transform.
func (in *Ingestor) UpdateField(row types.Row, field, raw string) types.Row {
	out := row.Clone()
	if col, ok := in.schema.Column(field); ok && col.IsDate() {
		raw = FormatDateInput(raw)
	}
	out[field] = raw
	return out
}

func (in *Ingestor) defaultValue(col config.ColumnConfig, batchID, today string) string {
	switch col.Default {
	case config.DefaultToday:
		return today
	case config.DefaultGenerated:
		return in.newID()
	case config.DefaultBatch:
		return batchID
	default:
		return ""
	}
}

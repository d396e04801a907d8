// =============================================================================
// Payroll Batch Importer - Batch
// =============================================================================
//
// This module holds the in-memory batch: an ordered list of entries, each a
// row together with its own validation result. All user actions land here:
//
//   | Action       | Method       | Revalidates            |
//   |--------------|--------------|------------------------|
//   | add row      | AddRow       | the new row            |
//   | edit field   | EditField    | the edited row         |
//   | delete row   | DeleteRow    | nothing (entry leaves) |
//   | import file  | ImportFrom   | the whole batch        |
//   | set batch ID | SetBatchID   | the whole batch        |
//   | process      | Process      | the whole batch        |
//
// Because each entry carries its own errors, rows and errors can never drift
// out of alignment.
//
// CONCURRENCY:
//   A Batch is driven by one caller at a time and is not safe for concurrent
//   use.
//
// =============================================================================

package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ginjaninja78/payroll-batch/internal/ingest"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/types"
	"github.com/ginjaninja78/payroll-batch/internal/validation"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBlocked is matched by every reason a batch cannot be processed.
	ErrBlocked = errors.New("batch cannot be processed")

	// ErrEmptyBatch is returned by Process for a batch with no rows.
	ErrEmptyBatch = fmt.Errorf("%w: batch is empty", ErrBlocked)

	// ErrProcessBlocked is returned by Process when any row has errors.
	ErrProcessBlocked = fmt.Errorf("%w: please fix validation errors before processing batch", ErrBlocked)

	// ErrDecode wraps every decoder failure during import.
	ErrDecode = errors.New("failed to decode import")

	// ErrRowIndex is returned for an edit or delete outside the batch.
	ErrRowIndex = errors.New("row index out of range")

	// ErrUnknownField is returned for an edit of a field the profile lacks.
	ErrUnknownField = errors.New("unknown field")

	// ErrReadOnlyField is returned for a direct edit of the batch field.
	ErrReadOnlyField = errors.New("field is read-only")
)

// =============================================================================
// BATCH
// =============================================================================

// Batch is an ordered group of rows sharing one batch identifier.
type Batch struct {
	id        string
	schema    *schema.Schema
	ingestor  *ingest.Ingestor
	validator *validation.Validator
	now       func() time.Time
	newID     ingest.IDGenerator
	logger    *slog.Logger
	entries   []types.Entry
}

// Option configures a Batch.
type Option func(*Batch)

// WithClock replaces the wall clock. It drives date defaults and the
// not-in-the-past rule.
func WithClock(now func() time.Time) Option {
	return func(b *Batch) { b.now = now }
}

// WithIDGenerator replaces the row identifier generator.
func WithIDGenerator(gen ingest.IDGenerator) Option {
	return func(b *Batch) { b.newID = gen }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batch) { b.logger = logger }
}

// New creates an empty batch for s with identifier id.
func New(s *schema.Schema, id string, opts ...Option) *Batch {
	b := &Batch{
		id:        id,
		schema:    s,
		validator: validation.NewValidator(s.Rules),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	ingestOpts := []ingest.Option{ingest.WithClock(b.now)}
	if b.newID != nil {
		ingestOpts = append(ingestOpts, ingest.WithIDGenerator(b.newID))
	}
	b.ingestor = ingest.New(s, ingestOpts...)
	b.logger = b.logger.With("profile", s.Name)

	return b
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.id }

// Schema returns the batch's schema.
func (b *Batch) Schema() *schema.Schema { return b.schema }

// Len returns the number of rows.
func (b *Batch) Len() int { return len(b.entries) }

// Entries returns copies of every entry in order.
func (b *Batch) Entries() []types.Entry {
	out := make([]types.Entry, len(b.entries))
	for i, e := range b.entries {
		out[i] = copyEntry(e)
	}
	return out
}

// Rows returns copies of every row in order.
func (b *Batch) Rows() []types.Row {
	out := make([]types.Row, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.Row.Clone()
	}
	return out
}

// Entry returns a copy of the entry at index i.
func (b *Batch) Entry(i int) (types.Entry, error) {
	if err := b.checkIndex(i); err != nil {
		return types.Entry{}, err
	}
	return copyEntry(b.entries[i]), nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddRow appends a blank row and returns its index.
func (b *Batch) AddRow() int {
	row := b.ingestor.CreateBlankRow(b.id)
	b.entries = append(b.entries, types.Entry{Row: row, Errors: b.validate(row)})
	b.logger.Debug("row added", "batch_id", b.id, "index", len(b.entries)-1)
	return len(b.entries) - 1
}

// EditField sets one field of row i and revalidates that row immediately.
//
// RETURNS:
//   - The row's new ErrorMap.
//   - ErrRowIndex, ErrUnknownField or ErrReadOnlyField; the batch is unchanged.
func (b *Batch) EditField(i int, field, value string) (types.ErrorMap, error) {
	if err := b.checkIndex(i); err != nil {
		return nil, err
	}
	if field == b.schema.BatchField {
		return nil, fmt.Errorf("%w: %s (use SetBatchID)", ErrReadOnlyField, field)
	}
	if !b.schema.HasField(field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	row := b.ingestor.UpdateField(b.entries[i].Row, field, value)
	errs := b.validate(row)
	b.entries[i] = types.Entry{Row: row, Errors: errs}

	return copyErrors(errs), nil
}

// DeleteRow removes the row at index i together with its errors.
func (b *Batch) DeleteRow(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	b.logger.Debug("row deleted", "batch_id", b.id, "index", i)
	return nil
}

// SetBatchID changes the batch identifier and rewrites it on every row.
func (b *Batch) SetBatchID(id string) {
	b.id = id
	for i := range b.entries {
		b.entries[i].Row[b.schema.BatchField] = id
	}
	b.Revalidate()
}

// Revalidate recomputes the errors of every row as of now.
func (b *Batch) Revalidate() {
	rows := make([]types.Row, len(b.entries))
	for i, e := range b.entries {
		rows[i] = e.Row
	}
	for i, errs := range b.validator.ValidateAll(rows, b.now()) {
		b.entries[i].Errors = errs
	}
}

// =============================================================================
// PREDICATES
// =============================================================================

// HasErrors reports whether any row currently has errors.
func (b *Batch) HasErrors() bool {
	for _, e := range b.entries {
		if !e.Clean() {
			return true
		}
	}
	return false
}

// IsProcessable reports whether the batch may be processed as of its last
// validation.
func (b *Batch) IsProcessable() bool {
	return IsProcessable(b.entries)
}

// IsProcessable is false for an empty batch and false whenever any entry has
// errors.
func IsProcessable(entries []types.Entry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !e.Clean() {
			return false
		}
	}
	return true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (b *Batch) validate(row types.Row) types.ErrorMap {
	return b.validator.Validate(row, b.now())
}

func (b *Batch) checkIndex(i int) error {
	if i < 0 || i >= len(b.entries) {
		return fmt.Errorf("%w: %d (batch has %d rows)", ErrRowIndex, i, len(b.entries))
	}
	return nil
}

func copyEntry(e types.Entry) types.Entry {
	return types.Entry{Row: e.Row.Clone(), Errors: copyErrors(e.Errors)}
}

func copyErrors(m types.ErrorMap) types.ErrorMap {
	out := make(types.ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

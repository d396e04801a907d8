package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/payroll-batch/internal/batch"
	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/csvparser"
	"github.com/ginjaninja78/payroll-batch/internal/ingest"
	"github.com/ginjaninja78/payroll-batch/internal/validation"
	"github.com/ginjaninja78/payroll-batch/internal/xlsxparser"
	"github.com/ginjaninja78/payroll-batch/pkg/utils"
)

// importExtensions are the file types a batch can be built from.
var importExtensions = []string{".xlsx", ".xlsm", ".csv"}

// errBatchInvalid is returned by commands that finish with unclean rows.
var errBatchInvalid = errors.New("batch has rows with validation errors")

// errImportFailed is returned by process when any input file failed to decode.
var errImportFailed = errors.New("one or more files could not be imported")

// =============================================================================
// BATCH FLAGS
// =============================================================================

// batchOptions are the flags shared by import and process.
type batchOptions struct {
	files   []string
	dir     string
	profile string
	batchID string
	blank   int
	edits   []string
	deletes []int
}

func addBatchFlags(cmd *cobra.Command, o *batchOptions) {
	cmd.Flags().StringSliceVarP(&o.files, "file", "f", nil, "XLSX or CSV file to import (repeatable)")
	cmd.Flags().StringVar(&o.dir, "dir", "", "Import every XLSX and CSV file in this directory")
	cmd.Flags().StringVarP(&o.profile, "profile", "p", "", "Batch profile (default from config)")
	cmd.Flags().StringVar(&o.batchID, "batch-id", "", "Batch identifier (default generated)")
	cmd.Flags().IntVar(&o.blank, "blank", 0, "Number of blank rows to add before importing")
	cmd.Flags().StringArrayVar(&o.edits, "set", nil, "Edit a field after import: ROW:FIELD=VALUE (1-based row, repeatable)")
	cmd.Flags().IntSliceVar(&o.deletes, "delete", nil, "Delete a row after import (1-based, repeatable)")
}

// =============================================================================
// BATCH BUILDING
// =============================================================================

// batchRun is a batch built from command-line inputs.
type batchRun struct {
	batch    *batch.Batch
	imported []string
	failed   []utils.FailedFileInfo
	start    time.Time
}

// buildBatch creates a batch and applies blank rows, imports, deletes and
// edits in that order. A file that fails to decode is recorded and leaves the
// batch unchanged; the remaining files are still imported.
func buildBatch(ctx context.Context, o *batchOptions) (*batchRun, error) {
	start := timeNow()

	profile := o.profile
	if profile == "" {
		profile = appConfig.DefaultProfile
	}
	s, err := registry.Lookup(profile)
	if err != nil {
		return nil, err
	}

	id := o.batchID
	if id == "" {
		id = ingest.NewBatchID(appConfig.BatchIDPrefix, start)
	}

	run := &batchRun{
		batch: batch.New(s, id, batch.WithClock(timeNow), batch.WithLogger(logger)),
		start: start,
	}

	for i := 0; i < o.blank; i++ {
		run.batch.AddRow()
	}

	files, err := collectFiles(o)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := importFile(ctx, run.batch, path); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("file not imported", "file", path, "error", err)
			run.failed = append(run.failed, utils.FailedFileInfo{InputFile: path, ErrorMessage: err.Error()})
			continue
		}
		run.imported = append(run.imported, path)
	}

	if err := applyDeletes(run.batch, o.deletes); err != nil {
		return nil, err
	}
	for _, raw := range o.edits {
		edit, err := parseEdit(raw)
		if err != nil {
			return nil, err
		}
		if _, err := run.batch.EditField(edit.row-1, edit.field, edit.value); err != nil {
			return nil, fmt.Errorf("--set %s: %w", raw, err)
		}
	}

	return run, nil
}

// collectFiles merges --file and --dir into one ordered list.
func collectFiles(o *batchOptions) ([]string, error) {
	files := append([]string(nil), o.files...)
	if o.dir != "" {
		found, err := utils.DiscoverImportFiles(o.dir, importExtensions...)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// importFile decodes one file into the batch.
func importFile(ctx context.Context, b *batch.Batch, path string) error {
	dec, err := decoderFor(path, appConfig.CSVSettings)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	n, err := b.ImportFrom(ctx, dec, f)
	if err != nil {
		return err
	}
	logger.Info("file imported", "file", path, "rows", n)
	return nil
}

// decoderFor picks a decoder by file extension.
func decoderFor(path string, csvSettings config.CSVSettings) (batch.Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsxparser.Decoder{}, nil
	case ".csv":
		return csvparser.NewDecoder(csvSettings), nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .xlsx, .xlsm or .csv)", filepath.Ext(path))
	}
}

// applyDeletes removes 1-based rows, highest first so earlier positions stay
// valid.
func applyDeletes(b *batch.Batch, rows []int) error {
	sorted := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for i, row := range sorted {
		if i > 0 && row == sorted[i-1] {
			continue
		}
		if err := b.DeleteRow(row - 1); err != nil {
			return fmt.Errorf("--delete %d: %w", row, err)
		}
	}
	return nil
}

// fieldEdit is one parsed --set flag.
type fieldEdit struct {
	row   int
	field string
	value string
}

// parseEdit parses ROW:FIELD=VALUE. VALUE may be empty and may contain '='.
func parseEdit(raw string) (fieldEdit, error) {
	rowPart, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: want ROW:FIELD=VALUE", raw)
	}
	field, value, ok := strings.Cut(rest, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: want ROW:FIELD=VALUE", raw)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil || row < 1 {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: row must be a positive number", raw)
	}
	return fieldEdit{row: row, field: strings.TrimSpace(field), value: value}, nil
}

// =============================================================================
// REPORTING
// =============================================================================

// printReport writes the per-row validation report of b.
func printReport(w io.Writer, run *batchRun) {
	b := run.batch
	entries := b.Entries()

	fmt.Fprintf(w, "Batch %s (profile %s): %d row(s), %d with errors\n",
		b.ID(), b.Schema().Name, len(entries), invalidRows(b))
	for _, f := range run.failed {
		fmt.Fprintf(w, "Import failed: %s: %s\n", f.InputFile, f.ErrorMessage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, validation.FormatErrors(validation.Collect(entries)))
}

// writeErrorLog writes the validation errors of b to the output directory.
func writeErrorLog(b *batch.Batch) (string, error) {
	collected := validation.Collect(b.Entries())
	if len(collected) == 0 {
		return "", nil
	}

	entries := make([]utils.ErrorLogEntry, len(collected))
	for i, ve := range collected {
		entries[i] = utils.ErrorLogEntry{
			BatchID:      b.ID(),
			RowNumber:    ve.RowNumber,
			FieldName:    ve.Field,
			FieldValue:   ve.Value,
			ErrorMessage: ve.Message,
		}
	}

	fm := utils.NewFileManager(appConfig.OutputDir, "")
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}
	return utils.WriteErrorLog(entries, appConfig.OutputDir, timeNow())
}

// invalidRows counts the entries of b with errors.
func invalidRows(b *batch.Batch) int {
	n := 0
	for _, e := range b.Entries() {
		if !e.Clean() {
			n++
		}
	}
	return n
}

package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/payroll-batch/internal/batch"
	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/csvparser"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/xlsxparser"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

const paymentsCSV = "Date,Debit Account,Credit Account,Debit Currency,Credit Currency,Debit Amount,Employee Name,Bank ID\n" +
	"2026-10-20,100200,300400,USD,EUR,1500.50,Jane Doe,1234567\n" +
	"20261021,100201,300401,USD,EUR,10,John Smith,7654321\n"

// setupCommand points the command globals at a temporary workspace and
// restores them when the test ends.
func setupCommand(t *testing.T, sink string) string {
	t.Helper()
	root := t.TempDir()

	prevConfig, prevRegistry, prevLogger, prevNow := appConfig, registry, logger, timeNow
	prevProcess, prevDryRun := processOpts, dryRun
	t.Cleanup(func() {
		appConfig, registry, logger, timeNow = prevConfig, prevRegistry, prevLogger, prevNow
		processOpts, dryRun = prevProcess, prevDryRun
	})

	appConfig = &config.MainConfig{
		OutputDir:           filepath.Join(root, "output"),
		ProfilesDir:         filepath.Join(root, "profiles"),
		ArchiveDir:          filepath.Join(root, "archive"),
		ArchiveImports:      true,
		DefaultProfile:      "payments",
		BatchIDPrefix:       "BATCH-",
		TransactionIDPrefix: "TXN-",
		Sink:                sink,
		OutputFileFormat:    "{batch}.xml",
		CSVSettings:         config.CSVSettings{Delimiter: ",", HeaderRows: 1},
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	timeNow = func() time.Time { return testNow }

	reg, err := loadRegistry(appConfig)
	require.NoError(t, err)
	registry = reg

	processOpts = batchOptions{}
	dryRun = false
	return root
}

func writeInput(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, "in")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		in      string
		want    fieldEdit
		wantErr bool
	}{
		{in: "1:bankId=1234567", want: fieldEdit{row: 1, field: "bankId", value: "1234567"}},
		{in: " 2 : remarks =a=b", want: fieldEdit{row: 2, field: "remarks", value: "a=b"}},
		{in: "3:remarks=", want: fieldEdit{row: 3, field: "remarks", value: ""}},
		{in: "bankId=1", wantErr: true},
		{in: "1:bankId", wantErr: true},
		{in: "1:=x", wantErr: true},
		{in: "0:bankId=1", wantErr: true},
		{in: "x:bankId=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEdit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecoderFor(t *testing.T) {
	settings := config.CSVSettings{Delimiter: "|"}

	dec, err := decoderFor("in/January.XLSX", settings)
	require.NoError(t, err)
	assert.IsType(t, xlsxparser.Decoder{}, dec)

	dec, err = decoderFor("in/january.csv", settings)
	require.NoError(t, err)
	require.IsType(t, &csvparser.Decoder{}, dec)
	assert.Equal(t, settings, dec.(*csvparser.Decoder).Settings)

	_, err = decoderFor("in/january.xls", settings)
	assert.Error(t, err)
}

func TestBuildBatch(t *testing.T) {
	root := setupCommand(t, "log")
	good := writeInput(t, root, "january.csv", paymentsCSV)
	broken := writeInput(t, root, "broken.xlsx", "not a workbook")

	run, err := buildBatch(context.Background(), &batchOptions{
		files:   []string{broken, good},
		batchID: "BATCH-T",
		blank:   1,
		deletes: []int{1, 1},
		edits:   []string{"2:remarks=bonus"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{good}, run.imported)
	require.Len(t, run.failed, 1)
	assert.Equal(t, broken, run.failed[0].InputFile)

	rows := run.batch.Rows()
	require.Len(t, rows, 2, "blank row deleted once")
	assert.Equal(t, "Jane Doe", rows[0]["employeeName"])
	assert.Equal(t, "2026-10-21", rows[1]["date"])
	assert.Equal(t, "bonus", rows[1]["remarks"])
	assert.True(t, run.batch.IsProcessable())
}

func TestBuildBatch_Errors(t *testing.T) {
	setupCommand(t, "log")

	_, err := buildBatch(context.Background(), &batchOptions{profile: "bonus"})
	assert.Error(t, err)

	_, err = buildBatch(context.Background(), &batchOptions{blank: 1, deletes: []int{2}})
	assert.ErrorIs(t, err, batch.ErrRowIndex)

	_, err = buildBatch(context.Background(), &batchOptions{blank: 1, edits: []string{"1:batchId=X"}})
	assert.ErrorIs(t, err, batch.ErrReadOnlyField)
}

func TestRunProcess_XMLSink(t *testing.T) {
	root := setupCommand(t, "xml")
	input := writeInput(t, root, "january.csv", paymentsCSV)
	processOpts = batchOptions{files: []string{input}, batchID: "BATCH-T"}

	var out bytes.Buffer
	require.NoError(t, runProcess(context.Background(), &out))

	assert.Contains(t, out.String(), "Batch BATCH-T processed successfully!")
	assert.FileExists(t, filepath.Join(appConfig.OutputDir, "BATCH-T.xml"))
	assert.FileExists(t, filepath.Join(appConfig.OutputDir, "processing_summary_20261016_093000.txt"))
	assert.FileExists(t, filepath.Join(appConfig.ArchiveDir, "january.csv"))
	assert.NoFileExists(t, input)
}

func TestRunProcess_Blocked(t *testing.T) {
	root := setupCommand(t, "xml")
	input := writeInput(t, root, "january.csv", paymentsCSV+"2026-10-22,1,2,USD,EUR,5,Ann Lee,123\n")
	processOpts = batchOptions{files: []string{input}, batchID: "BATCH-T"}

	var out bytes.Buffer
	err := runProcess(context.Background(), &out)

	assert.ErrorIs(t, err, batch.ErrProcessBlocked)
	assert.Contains(t, out.String(), "Row 3, Field 'bankId': Bank ID must be exactly 7 digits (value: '123')")
	assert.Contains(t, out.String(), "Please fix validation errors before processing batch.")
	assert.FileExists(t, filepath.Join(appConfig.OutputDir, "error_log_20261016_093000.txt"))
	assert.NoFileExists(t, filepath.Join(appConfig.OutputDir, "BATCH-T.xml"))
	assert.FileExists(t, input, "inputs of a blocked batch are not archived")
}

func TestRunProcess_FailedImportBlocks(t *testing.T) {
	root := setupCommand(t, "xml")
	good := writeInput(t, root, "january.csv", paymentsCSV)
	broken := writeInput(t, root, "february.xlsx", "not a workbook")
	processOpts = batchOptions{files: []string{good, broken}, batchID: "BATCH-T"}

	var out bytes.Buffer
	err := runProcess(context.Background(), &out)

	assert.ErrorIs(t, err, errImportFailed)
	assert.Contains(t, out.String(), "Import failed: "+broken)
	assert.NotContains(t, out.String(), "processed successfully")
	assert.NoFileExists(t, filepath.Join(appConfig.OutputDir, "BATCH-T.xml"))
	assert.FileExists(t, filepath.Join(appConfig.OutputDir, "processing_summary_20261016_093000.txt"))
	assert.FileExists(t, good, "inputs of an unprocessed batch are not archived")
}

func TestRunProcess_Empty(t *testing.T) {
	setupCommand(t, "log")

	var out bytes.Buffer
	err := runProcess(context.Background(), &out)

	assert.ErrorIs(t, err, batch.ErrEmptyBatch)
	assert.Contains(t, out.String(), "Batch is empty.")
}

func TestSelectSink(t *testing.T) {
	setupCommand(t, "xml")

	sink, xmlSink := selectSink()
	require.NotNil(t, xmlSink)
	assert.Same(t, xmlSink, sink)

	dryRun = true
	sink, xmlSink = selectSink()
	assert.Nil(t, xmlSink)
	assert.IsType(t, batch.LogSink{}, sink)
}

func TestLoadRegistry_XLSXProfile(t *testing.T) {
	setupCommand(t, "log")
	require.NoError(t, os.MkdirAll(appConfig.ProfilesDir, 0755))

	s, err := registry.Lookup("employees")
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(appConfig.ProfilesDir, "bonus.xlsx"))
	require.NoError(t, err)
	p := &config.ProfileConfig{Name: "bonus", Columns: s.Columns}
	require.NoError(t, xlsxparser.WriteProfile(f, p))
	require.NoError(t, f.Close())

	reg, err := loadRegistry(appConfig)
	require.NoError(t, err)

	bonus, err := reg.Lookup("bonus")
	require.NoError(t, err)
	assert.Equal(t, s.Keys(), bonus.Keys())
	assert.IsType(t, &schema.Schema{}, bonus)
}

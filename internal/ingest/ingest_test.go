package ingest

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func builtinSchema(t *testing.T, name string) *schema.Schema {
	t.Helper()
	for _, p := range config.BuiltinProfiles() {
		if p.Name == name {
			s, err := schema.Compile(&p, "TXN-")
			require.NoError(t, err)
			return s
		}
	}
	t.Fatalf("no built-in profile %q", name)
	return nil
}

// sequentialIDs returns ID-1, ID-2, ...
func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return "ID-" + strconv.Itoa(n)
	}
}

func newTestIngestor(t *testing.T, profile string) *Ingestor {
	t.Helper()
	return New(builtinSchema(t, profile),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	)
}

func TestCreateBlankRow(t *testing.T) {
	in := newTestIngestor(t, "transfers")

	first := in.CreateBlankRow("BATCH-1")
	second := in.CreateBlankRow("BATCH-1")

	assert.Equal(t, types.Row{
		"batchId":        "BATCH-1",
		"transactionId":  "ID-1",
		"date":           "2026-10-16",
		"debitAccount":   "",
		"creditAccount":  "",
		"debitCurrency":  "",
		"debitAmount":    "",
		"creditCurrency": "",
		"creditAmount":   "",
		"employeeName":   "",
		"bankID":         "",
		"remarks":        "",
	}, first)
	assert.Equal(t, "ID-2", second["transactionId"], "each blank row gets a fresh identifier")
}

func TestIngestImported_ResolutionOrder(t *testing.T) {
	in := newTestIngestor(t, "payments")

	records := []types.Record{
		{"debitAmount": "10", "Debit Amount": "20", "DebitAmount": "30"},
		{"Debit Amount": "20", "DebitAmount": "30"},
		{"DebitAmount": "30"},
		{"debitAmount": "  ", "Debit Amount": "20"},
		{"unrelated": "x"},
	}

	rows := in.IngestImported(records, "BATCH-1")

	require.Len(t, rows, len(records))
	assert.Equal(t, "10", rows[0]["debitAmount"], "key beats label")
	assert.Equal(t, "20", rows[1]["debitAmount"], "label beats capitalized key")
	assert.Equal(t, "30", rows[2]["debitAmount"])
	assert.Equal(t, "20", rows[3]["debitAmount"], "blank values do not resolve")
	assert.Equal(t, "", rows[4]["debitAmount"])
	assert.NotContains(t, rows[4], "unrelated")
}

func TestIngestImported_ValuesAndDefaults(t *testing.T) {
	in := newTestIngestor(t, "payments")

	rows := in.IngestImported([]types.Record{
		{
			"Batch ID":      "FROM-FILE",
			"Date":          time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
			"Debit Amount":  1500.5,
			"Employee Name": "Jane Doe",
			"Bank ID":       1234567,
		},
		{"date": "20270305"},
		{},
	}, "BATCH-1")

	require.Len(t, rows, 3)

	assert.Equal(t, "BATCH-1", rows[0]["batchId"], "file batch id is replaced")
	assert.Equal(t, "2027-01-02", rows[0]["date"])
	assert.Equal(t, "1500.5", rows[0]["debitAmount"])
	assert.Equal(t, "Jane Doe", rows[0]["employeeName"])
	assert.Equal(t, "1234567", rows[0]["bankId"])

	assert.Equal(t, "2027-03-05", rows[1]["date"])

	assert.Equal(t, "2026-10-16", rows[2]["date"], "missing date defaults to today")
	assert.Equal(t, "BATCH-1", rows[2]["batchId"])
}

func TestIngestImported_Empty(t *testing.T) {
	in := newTestIngestor(t, "payments")
	assert.Empty(t, in.IngestImported(nil, "BATCH-1"))
}

func TestUpdateField(t *testing.T) {
	in := newTestIngestor(t, "payments")
	row := in.CreateBlankRow("BATCH-1")

	updated := in.UpdateField(row, "date", "20240115")
	assert.Equal(t, "2024-01-15", updated["date"])
	assert.Equal(t, "2026-10-16", row["date"], "input row is not modified")

	updated = in.UpdateField(row, "remarks", "20240115")
	assert.Equal(t, "20240115", updated["remarks"], "only date columns are transformed")
}

func TestResolve_CustomResolvers(t *testing.T) {
	col := config.ColumnConfig{Key: "bankId", Label: "Bank ID"}
	byLabel := []Resolver{DefaultResolvers[1]}

	v, name, ok := Resolve(types.Record{"bankId": "1", "Bank ID": "2"}, col, byLabel)
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, "label", name)

	_, _, ok = Resolve(types.Record{"bankId": "1"}, col, byLabel)
	assert.False(t, ok)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "DebitAmount", Capitalize("debitAmount"))
	assert.Equal(t, "Élan", Capitalize("élan"))
	assert.Equal(t, "", Capitalize(""))
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "abc", CellString("abc"))
	assert.Equal(t, "12.25", CellString(12.25))
	assert.Equal(t, "7", CellString(7))
	assert.Equal(t, "true", CellString(true))
	assert.Equal(t, "2026-10-16", CellString(testNow))
	assert.Equal(t, "", CellString(time.Time{}))
}

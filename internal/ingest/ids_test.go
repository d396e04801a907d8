package ingest

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransactionID(t *testing.T) {
	a := NewTransactionID("TXN-")
	b := NewTransactionID("TXN-")

	assert.Regexp(t, `^TXN-[0-9A-F]{9}$`, a)
	assert.NotEqual(t, a, b)
}

func TestTransactionIDs(t *testing.T) {
	gen := TransactionIDs("EMP-")
	assert.Regexp(t, `^EMP-[0-9A-F]{9}$`, gen())
}

func TestNewBatchID(t *testing.T) {
	id := NewBatchID("BATCH-", testNow)

	assert.Regexp(t, `^BATCH-[0-9A-Z]+$`, id)
	assert.Equal(t, "BATCH-"+strings.ToUpper(strconv.FormatInt(testNow.UnixMilli(), 36)), id)
	assert.Equal(t, id, NewBatchID("BATCH-", testNow))
}

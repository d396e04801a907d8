package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh row identifier on each call.
type IDGenerator func() string

// transactionIDLength is the number of random characters after the prefix.
const transactionIDLength = 9

// NewTransactionID returns prefix followed by nine uppercase hex characters
// taken from a random UUID, e.g. "TXN-3F9A0C21B".
func NewTransactionID(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + id[:transactionIDLength]
}

// TransactionIDs returns an IDGenerator bound to prefix.
func TransactionIDs(prefix string) IDGenerator {
	return func() string {
		return NewTransactionID(prefix)
	}
}

// NewBatchID returns prefix followed by the uppercase base-36 Unix millisecond
// timestamp of now, e.g. "BATCH-MGT3K1Q2".
func NewBatchID(prefix string, now time.Time) string {
	return prefix + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

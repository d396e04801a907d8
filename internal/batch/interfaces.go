package batch

import (
	"context"
	"io"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// Decoder turns raw spreadsheet bytes into loosely typed records.
// Implementations: xlsxparser.Decoder, csvparser.Decoder.
//
//go:generate mockgen -destination=mocks/mock_batch.go -source=interfaces.go
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) ([]types.Record, error)
}

// Sink receives a clean batch when it is processed.
// Implementations: LogSink, xmlwriter.Sink.
type Sink interface {
	Submit(ctx context.Context, sub types.Submission) error
}

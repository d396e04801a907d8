package xmlwriter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/payroll-batch/internal/types"
	"github.com/ginjaninja78/payroll-batch/pkg/utils"
)

// pathSafe keeps batch and profile names from adding path elements to the
// output file name.
var pathSafe = strings.NewReplacer("/", "_", `\`, "_", "..", "_")

// Sink writes each submitted batch as an XML file in OutputDir.
type Sink struct {
	// OutputDir is created on first use.
	OutputDir string

	// FileNameFormat accepts the utils.GenerateOutputFileName placeholders
	// plus {batch} and {profile}.
	FileNameFormat string

	Logger *slog.Logger

	// LastPath is the file written by the most recent successful Submit.
	LastPath string
}

// Submit renders sub and writes it to a new file.
func (s *Sink) Submit(ctx context.Context, sub types.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fm := utils.NewFileManager(s.OutputDir, "")
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	name := utils.GenerateOutputFileName(s.FileNameFormat, map[string]string{
		"batch":   pathSafe.Replace(sub.BatchID),
		"profile": pathSafe.Replace(sub.Profile),
	}, sub.SubmittedAt)
	path := filepath.Join(s.OutputDir, name)

	if err := os.WriteFile(path, Generate(sub), 0644); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}
	s.LastPath = path

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "batch file written", "batch_id", sub.BatchID, "path", path, "rows", len(sub.Rows))

	return nil
}

// =============================================================================
// Payroll Batch Importer - Process Command
// =============================================================================
//
// COMMAND USAGE:
//   payroll process [batch flags] [--dry-run]
//
// PROCESSING PIPELINE:
//   1. Build the batch exactly like 'import'
//   2. Revalidate every row as of now
//   3. If the batch is empty or any row has errors, report and stop
//   4. Otherwise submit the batch to the configured sink
//   5. Archive imported files (archive_imports)
//   6. Write a processing summary
//
// FLAGS:
//   --dry-run : Log the batch instead of writing an XML file
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/payroll-batch/internal/batch"
	"github.com/ginjaninja78/payroll-batch/internal/xmlwriter"
	"github.com/ginjaninja78/payroll-batch/pkg/utils"
)

var processOpts batchOptions

// dryRun submits to the log sink regardless of configuration.
var dryRun bool

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build a batch and submit it when every row is valid",
	Long: `The process command builds a batch like 'import' and submits it to the
configured sink only when the batch is non-empty and every row passes
validation.

Sinks:
  log - every row is written to the structured log
  xml - the batch is written as an XML file in the output directory

On a blocked batch an error log is written and nothing is submitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	addBatchFlags(processCmd, &processOpts)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Log the batch instead of writing output files",
	)
}

// runProcess executes the processing pipeline.
func runProcess(ctx context.Context, out io.Writer) error {
	run, err := buildBatch(ctx, &processOpts)
	if err != nil {
		return err
	}
	b := run.batch

	// A batch missing a file's rows is never submitted.
	sink, xmlSink := selectSink()
	processErr := errImportFailed
	if len(run.failed) == 0 {
		processErr = b.Process(ctx, sink)
	}

	summary := utils.ProcessingSummary{
		BatchID:       b.ID(),
		Profile:       b.Schema().Name,
		StartTime:     run.start,
		ImportedFiles: run.imported,
		FailedFiles:   run.failed,
		TotalRows:     b.Len(),
		InvalidRows:   invalidRows(b),
		Processed:     processErr == nil,
	}

	switch {
	case errors.Is(processErr, errImportFailed):
		printReport(out, run)
		fmt.Fprintln(out, "Please fix or remove the files that failed to import before processing batch.")
	case errors.Is(processErr, batch.ErrEmptyBatch):
		fmt.Fprintln(out, "Batch is empty. Add or import rows before processing.")
	case errors.Is(processErr, batch.ErrProcessBlocked):
		printReport(out, run)
		fmt.Fprintln(out, "Please fix validation errors before processing batch.")
		path, err := writeErrorLog(b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Error log written to %s\n", path)
	case processErr != nil:
		return processErr
	default:
		fmt.Fprintf(out, "Batch %s processed successfully!\n", b.ID())
		if xmlSink != nil {
			summary.OutputFile = xmlSink.LastPath
		}
		archiveImports(run)
	}

	summary.EndTime = timeNow()
	if path, err := writeSummary(summary); err != nil {
		logger.Warn("summary not written", "error", err)
	} else {
		logger.Info("summary written", "path", path)
	}

	return processErr
}

// selectSink returns the configured sink. The XML sink is also returned
// typed so its output path can be reported.
func selectSink() (batch.Sink, *xmlwriter.Sink) {
	if dryRun || appConfig.Sink != "xml" {
		return batch.LogSink{Logger: logger}, nil
	}
	s := &xmlwriter.Sink{
		OutputDir:      appConfig.OutputDir,
		FileNameFormat: appConfig.OutputFileFormat,
		Logger:         logger,
	}
	return s, s
}

// archiveImports moves imported files to the archive directory when enabled.
func archiveImports(run *batchRun) {
	if !appConfig.ArchiveImports || dryRun {
		return
	}

	fm := utils.NewFileManager(appConfig.OutputDir, appConfig.ArchiveDir)
	fm.UseTimestampSubdirs = appConfig.UseTimestampSubdirs
	for _, path := range run.imported {
		archived, err := fm.ArchiveFile(path)
		if err != nil {
			logger.Warn("file not archived", "file", path, "error", err)
			continue
		}
		logger.Info("file archived", "file", path, "archive", archived)
	}
}

func writeSummary(summary utils.ProcessingSummary) (string, error) {
	fm := utils.NewFileManager(appConfig.OutputDir, "")
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}
	return utils.WriteSummaryLog(summary, appConfig.OutputDir)
}

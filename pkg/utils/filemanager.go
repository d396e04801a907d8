// =============================================================================
// Payroll Batch Importer - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the importer, including:
//   - Import file discovery
//   - Archival of imported files
//   - Error log and batch summary generation
//   - Directory management
//   - Output file naming
//
// ARCHIVAL STRATEGY:
//   - Imported files are moved to the archive directory after their batch is
//     processed successfully
//   - Files of a blocked batch remain in their original location
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the importer.
type FileManager struct {
	// OutputDir is where batch XML files, error logs and summaries go.
	OutputDir string

	// ArchiveDir is the directory for archived import files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2026/10/16/payroll.xlsx
	UseTimestampSubdirs bool

	// Now is the clock used for archive subdirectories. Default: time.Now
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		Now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverImportFiles lists the files directly inside dir whose extension is
// one of extensions (case-insensitive, with the dot), in name order.
func DiscoverImportFiles(dir string, extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile moves a file to the archive directory.
//
// RETURNS:
//   - The path the file now lives at.
//   - An error if the move fails. The original file is left in place.
func (fm *FileManager) ArchiveFile(filePath string) (string, error) {
	dest := filepath.Join(fm.archiveDirFor(), filepath.Base(filePath))

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := moveFile(filePath, dest); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filePath, err)
	}
	return dest, nil
}

// archiveDirFor returns ArchiveDir, or ArchiveDir/YYYY/MM/DD when
// UseTimestampSubdirs is set.
func (fm *FileManager) archiveDirFor() string {
	if !fm.UseTimestampSubdirs {
		return fm.ArchiveDir
	}
	return filepath.Join(fm.ArchiveDir, filepath.FromSlash(fm.now().Format("2006/01/02")))
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - now as YYYYMMDD_HHMMSS
//     {date}      - now as YYYYMMDD
//     any key of params, e.g. {batch}, {profile}
//   - params: A map of placeholder values.
//   - now: The timestamp source.
//
// EXAMPLE:
//
//	format: "{batch}_{timestamp}.xml"
//	params: {"batch": "BATCH-MGT3K1Q2"}
//	output: "BATCH-MGT3K1Q2_20261016_143022.xml"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	name := strings.NewReplacer(pairs...).Replace(format)

	if strings.EqualFold(filepath.Ext(name), ".xml") {
		return name
	}
	return name + ".xml"
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	BatchID      string
	RowNumber    int
	FieldName    string
	FieldValue   string
	ErrorMessage string
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Payroll Batch Importer - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n", i+1)
		if entry.BatchID != "" {
			fmt.Fprintf(writer, "  Batch:          %s\n", entry.BatchID)
		}
		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		fmt.Fprintf(writer, "  Message:        %s\n\n", entry.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about one batch run.
type ProcessingSummary struct {
	BatchID       string
	Profile       string
	StartTime     time.Time
	EndTime       time.Time
	ImportedFiles []string
	FailedFiles   []FailedFileInfo
	TotalRows     int
	InvalidRows   int
	OutputFile    string
	Processed     bool
}

// FailedFileInfo contains information about a file that could not be imported.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if err := WriteSummary(file, summary); err != nil {
		return "", err
	}
	return summaryPath, nil
}

// WriteSummary writes a processing summary to w.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	writer := bufio.NewWriter(w)

	status := "BLOCKED"
	if summary.Processed {
		status = "PROCESSED"
	}

	fmt.Fprintf(writer, "Payroll Batch Importer - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Batch:          %s\n"+
		"  Profile:        %s\n"+
		"  Status:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Imported Files:     %d\n"+
		"  Failed Files:       %d\n"+
		"  Total Rows:         %d\n"+
		"  Rows With Errors:   %d\n\n",
		summary.BatchID,
		summary.Profile,
		status,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		len(summary.ImportedFiles),
		len(summary.FailedFiles),
		summary.TotalRows,
		summary.InvalidRows)

	if summary.OutputFile != "" {
		fmt.Fprintf(writer, "Output:\n  %s\n\n", summary.OutputFile)
	}

	if len(summary.ImportedFiles) > 0 {
		writer.WriteString("Imported Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.ImportedFiles {
			fmt.Fprintf(writer, "  %s\n", f)
		}
		writer.WriteString("\n")
	}

	if len(summary.FailedFiles) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFiles {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// moveFile renames src to dst, falling back to copy and remove when a rename
// is not possible (different devices).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

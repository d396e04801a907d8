// =============================================================================
// Payroll Batch Importer - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   payroll import --file F [--file F2] [--dir D] [--profile P]
//                  [--batch-id ID] [--blank N] [--delete N] [--set R:F=V]
//
// Builds a batch, prints the per-row validation report and writes an error
// log when any row is invalid. Nothing is submitted. The command exits
// non-zero when a file failed to import or any row has errors.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importOpts batchOptions

// importCmd represents the 'import' command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import rows into a batch and report validation errors",
	Long: `The import command builds a batch from blank rows and XLSX or CSV files,
then validates every row against the batch profile.

Columns are matched by canonical key, then by display label, then by the key
with its first letter capitalized. Missing dates default to today and missing
identifiers are generated. Every row carries the batch identifier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := buildBatch(cmd.Context(), &importOpts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printReport(out, run)

		if n := invalidRows(run.batch); n > 0 {
			path, err := writeErrorLog(run.batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Error log written to %s\n", path)
			return fmt.Errorf("%w (%d row(s))", errBatchInvalid, n)
		}
		if len(run.failed) > 0 {
			return fmt.Errorf("%d file(s) could not be imported", len(run.failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	addBatchFlags(importCmd, &importOpts)
}

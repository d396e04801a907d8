// =============================================================================
// Payroll Batch Importer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the payroll batch importer CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   payroll import    - Build a batch from spreadsheets and report row errors
//   payroll process   - Build a batch and submit it when every row is clean
//   payroll template  - Write an XLSX template for a profile
//   payroll profiles  - List, show or export batch profiles
//   payroll version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (validation, ingest, batch, decoders, sinks)
//   - pkg/           : Shared file utilities
//   - profiles/      : Optional YAML or XLSX profile definitions
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/payroll-batch/cmd"
)

func main() {
	cmd.Execute()
}

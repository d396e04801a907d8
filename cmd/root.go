// =============================================================================
// Payroll Batch Importer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (payroll)
//   ├── importCmd   (payroll import)
//   ├── processCmd  (payroll process)
//   ├── templateCmd (payroll template)
//   ├── profilesCmd (payroll profiles)
//   │   └── profilesExportCmd (payroll profiles export)
//   └── versionCmd  (payroll version)
//
// CONFIGURATION:
//   Before any command runs, the root command:
//   1. Loads config.yaml and the .env file
//   2. Sets up logging
//   3. Loads built-in and file profiles into the registry
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/logging"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/xlsxparser"
	"github.com/ginjaninja78/payroll-batch/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose forces debug logging.
var verbose bool

// Loaded by loadEnvironment before any command runs.
var (
	appConfig *config.MainConfig
	registry  *schema.Registry
	logger    *slog.Logger
)

// timeNow is the clock every command reads. Tests replace it.
var timeNow = time.Now

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "skip-config"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Payroll Batch Importer - Validate and submit payment batches",
	Long: `Payroll Batch Importer builds payment batches from XLSX or CSV files,
validates every row against a batch profile, and submits the batch only when
every row is clean.

Key Features:
  - Built-in payments, transfers and employees profiles
  - Custom profiles as YAML or XLSX files in the profiles directory
  - Per-row, per-field validation report and error log
  - XML file or structured log submission

Example Usage:
  payroll import --file january.xlsx          # Report row errors
  payroll process --file january.xlsx         # Submit when clean
  payroll template --out payments.xlsx        # Write a blank template
  payroll profiles                            # List loaded profiles`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, skip := cmd.Annotations[skipConfigAnnotation]; skip {
			return nil
		}
		return loadEnvironment()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with PAYROLL_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadEnvironment loads configuration, logging and profiles.
func loadEnvironment() error {
	cfg, err := config.LoadMainConfig(cfgFile, envFile)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.Setup(level, cfg.LogFormat)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	appConfig = cfg
	registry = reg
	logger.Debug("configuration loaded",
		"config", cfgFile,
		"profiles", strings.Join(reg.Names(), ","),
		"sink", cfg.Sink,
	)
	return nil
}

// loadRegistry compiles the built-in profiles, YAML profiles and XLSX profile
// workbooks found in the profiles directory. An XLSX profile is named after
// its file and replaces a YAML or built-in profile of the same name.
func loadRegistry(cfg *config.MainConfig) (*schema.Registry, error) {
	profiles, err := config.LoadProfileConfigs(cfg.ProfilesDir)
	if err != nil {
		return nil, err
	}

	if utils.FileExists(cfg.ProfilesDir) {
		files, err := utils.DiscoverImportFiles(cfg.ProfilesDir, ".xlsx")
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			profile, err := loadXLSXProfile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", file, err)
			}
			profiles[profile.Name] = profile
		}
	}

	return schema.NewRegistry(profiles, cfg.TransactionIDPrefix)
}

func loadXLSXProfile(path string) (*config.ProfileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := filepath.Base(path)
	return xlsxparser.ParseProfile(f, strings.TrimSuffix(base, filepath.Ext(base)))
}

// =============================================================================
// Payroll Batch Importer - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the rule profiles
// that describe each kind of batch (payments, transfers, employees).
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Profiles (profiles/*.yaml): Column layout and validation rules per batch kind
//   3. Environment (.env + process env): PAYROLL_* overrides
//
// ARCHITECTURE:
//   - A missing config.yaml is not an error; defaults apply.
//   - Built-in profiles are always available and can be replaced by a file
//     in the profiles directory carrying the same name.
//   - Environment variables win over the .env file, which wins over YAML.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is where submitted batch XML files and error logs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ProfilesDir is the directory containing profile YAML files.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir"`

	// ArchiveDir receives imported files after their batch is processed,
	// when archiving is enabled.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveImports moves imported files to ArchiveDir after a successful
	// process run.
	// Default: false
	ArchiveImports bool `yaml:"archive_imports"`

	// UseTimestampSubdirs files archives under YYYY/MM/DD subdirectories.
	// Default: false
	UseTimestampSubdirs bool `yaml:"use_timestamp_subdirs"`

	// =========================================================================
	// BATCH SETTINGS
	// =========================================================================

	// DefaultProfile is the profile used when --profile is not given.
	// Default: "payments"
	DefaultProfile string `yaml:"default_profile"`

	// BatchIDPrefix is prepended to generated batch identifiers.
	// Default: "BATCH-"
	BatchIDPrefix string `yaml:"batch_id_prefix"`

	// TransactionIDPrefix is prepended to generated row identifiers when the
	// profile does not set its own.
	// Default: "TXN-"
	TransactionIDPrefix string `yaml:"transaction_id_prefix"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the slog handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Sink selects where processed batches go.
	// Valid values: "log" (structured log only), "xml" (XML file in OutputDir)
	// Default: "log"
	Sink string `yaml:"sink"`

	// OutputFileFormat defines the format for submitted batch file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {batch}     - Batch identifier
	//   {profile}   - Profile name
	// Default: "{batch}_{uuid}.xml"
	OutputFileFormat string `yaml:"output_file_format"`

	// CSVSettings controls how CSV imports are read.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV imports.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab), ";" (semicolon)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of rows the header spans. Multi-row headers
	// are merged column by column with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Environment variable names that override YAML values.
const (
	EnvLogLevel  = "PAYROLL_LOG_LEVEL"
	EnvLogFormat = "PAYROLL_LOG_FORMAT"
	EnvOutputDir = "PAYROLL_OUTPUT_DIR"
	EnvProfile   = "PAYROLL_PROFILE"
	EnvSink      = "PAYROLL_SINK"
)

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     yields the defaults.
//   - envFile: Optional path to a .env file. A missing file is ignored.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if a file exists but cannot be read or parsed, or the
//     resulting configuration is invalid.
func LoadMainConfig(configPath, envFile string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// No config file, fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(&config, func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	})

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// readEnvFile reads KEY=VALUE pairs from a .env file without touching the
// process environment.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// applyEnvOverrides replaces YAML values with non-empty environment values.
func applyEnvOverrides(config *MainConfig, getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		config.LogFormat = v
	}
	if v := getenv(EnvOutputDir); v != "" {
		config.OutputDir = v
	}
	if v := getenv(EnvProfile); v != "" {
		config.DefaultProfile = v
	}
	if v := getenv(EnvSink); v != "" {
		config.Sink = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = "./profiles"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.DefaultProfile == "" {
		config.DefaultProfile = "payments"
	}
	if config.BatchIDPrefix == "" {
		config.BatchIDPrefix = "BATCH-"
	}
	if config.TransactionIDPrefix == "" {
		config.TransactionIDPrefix = "TXN-"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.Sink == "" {
		config.Sink = "log"
	}
	if config.OutputFileFormat == "" {
		config.OutputFileFormat = "{batch}_{uuid}.xml"
	}
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows <= 0 {
		config.CSVSettings.HeaderRows = 1
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	config.Sink = strings.ToLower(config.Sink)
	switch config.Sink {
	case "log", "xml":
	default:
		return fmt.Errorf("sink must be \"log\" or \"xml\", got %q", config.Sink)
	}

	config.LogFormat = strings.ToLower(config.LogFormat)
	switch config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", config.LogFormat)
	}

	return nil
}

// LoadProfileConfigs returns the built-in profiles merged with every YAML
// profile found in profilesDir. A file profile replaces a built-in one with the
// same name. A missing directory yields only the built-ins.
//
// RETURNS:
//   - Profiles keyed by name.
//   - An error if any profile file cannot be parsed or is invalid.
func LoadProfileConfigs(profilesDir string) (map[string]*ProfileConfig, error) {
	profiles := make(map[string]*ProfileConfig)
	for _, p := range BuiltinProfiles() {
		p := p
		profiles[p.Name] = &p
	}

	if profilesDir == "" {
		return profiles, nil
	}
	if _, err := os.Stat(profilesDir); errors.Is(err, fs.ErrNotExist) {
		return profiles, nil
	}

	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		profile, err := loadProfileConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		profiles[profile.Name] = profile
	}

	return profiles, nil
}

// loadProfileConfig loads a single profile file.
func loadProfileConfig(filePath string) (*ProfileConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile ProfileConfig
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	// Use the file name if the profile does not name itself.
	if profile.Name == "" {
		base := filepath.Base(filePath)
		profile.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	applyProfileDefaults(&profile)

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &profile, nil
}

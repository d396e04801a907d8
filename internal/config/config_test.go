package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// clearEnv blanks every PAYROLL_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvLogLevel, EnvLogFormat, EnvOutputDir, EnvProfile, EnvSink} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func columnKeys(p *ProfileConfig) []string {
	keys := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		keys[i] = c.Key
	}
	return keys
}

func TestLoadMainConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadMainConfig(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "./profiles", cfg.ProfilesDir)
	assert.Equal(t, "./archive", cfg.ArchiveDir)
	assert.Equal(t, "payments", cfg.DefaultProfile)
	assert.Equal(t, "BATCH-", cfg.BatchIDPrefix)
	assert.Equal(t, "TXN-", cfg.TransactionIDPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "log", cfg.Sink)
	assert.Equal(t, "{batch}_{uuid}.xml", cfg.OutputFileFormat)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.False(t, cfg.ArchiveImports)
}

func TestLoadMainConfig_YAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
output_dir: /var/payroll/out
default_profile: transfers
sink: XML
log_format: JSON
archive_imports: true
csv_settings:
  delimiter: "|"
  header_rows: 2
`)

	cfg, err := LoadMainConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, "/var/payroll/out", cfg.OutputDir)
	assert.Equal(t, "transfers", cfg.DefaultProfile)
	assert.Equal(t, "xml", cfg.Sink)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.ArchiveImports)
	assert.Equal(t, "|", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 2, cfg.CSVSettings.HeaderRows)
	// Unset values still get defaults.
	assert.Equal(t, "./profiles", cfg.ProfilesDir)
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yaml", "default_profile: payments\nsink: log\n")
	envPath := writeFile(t, dir, ".env", "PAYROLL_PROFILE=transfers\nPAYROLL_SINK=xml\nPAYROLL_LOG_LEVEL=debug\n")

	t.Setenv(EnvProfile, "employees")

	cfg, err := LoadMainConfig(configPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "employees", cfg.DefaultProfile, "process env wins over .env")
	assert.Equal(t, "xml", cfg.Sink, ".env wins over YAML")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown sink", content: "sink: ftp\n", wantErr: "sink"},
		{name: "unknown log format", content: "log_format: xml\n", wantErr: "log_format"},
		{name: "malformed yaml", content: "sink: [\n", wantErr: "failed to parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config.yaml", tt.content)
			_, err := LoadMainConfig(path, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProfileConfigs_BuiltinsOnly(t *testing.T) {
	profiles, err := LoadProfileConfigs(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)

	assert.Len(t, profiles, 3)
	for _, name := range []string{"payments", "transfers", "employees"} {
		require.Contains(t, profiles, name)
		assert.NoError(t, profiles[name].Validate())
	}
}

func TestLoadProfileConfigs_FileOverridesAndAdds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bonus.yaml", `
description: Quarterly bonus
columns:
  - key: employee
    label: Employee
    rules: [required, name]
  - key: bankId
    rules:
      - required
      - digits(7)
  - key: amount
    rules:
      - {type: numeric, message: "Amount must be a number"}
      - positive
  - key: payday
    default: today
    rules: [date, not_past]
`)
	writeFile(t, dir, "payments.yml", `
name: payments
columns:
  - key: amount
    rules: [required]
`)

	profiles, err := LoadProfileConfigs(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 4)

	bonus := profiles["bonus"]
	require.NotNil(t, bonus, "profile is named after its file")
	assert.Equal(t, "Quarterly bonus", bonus.Description)
	assert.Equal(t, "batchId", bonus.BatchField)
	assert.Equal(t, []string{"employee", "bankId", "amount", "payday"}, columnKeys(bonus))

	bank := bonus.Columns[1]
	assert.Equal(t, "bankId", bank.Label, "label defaults to key")
	assert.Equal(t, DefaultText, bank.Default)
	assert.Equal(t, []RuleSpec{{Type: RuleRequired}, {Type: RuleDigits, Length: 7}}, bank.Rules)

	amount := bonus.Columns[2]
	assert.Equal(t, RuleSpec{Type: RuleNumeric, Message: "Amount must be a number"}, amount.Rules[0])
	assert.Equal(t, RuleSpec{Type: RulePositive}, amount.Rules[1])

	assert.True(t, bonus.Columns[3].IsDate())
	assert.False(t, bank.IsDate())

	assert.Equal(t, []string{"amount"}, columnKeys(profiles["payments"]), "file replaces built-in")
}

func TestLoadProfileConfigs_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown rule", content: "columns:\n  - key: a\n    rules: [luhn]\n", wantErr: "unknown rule"},
		{name: "digits without length", content: "columns:\n  - key: a\n    rules: [{type: digits}]\n", wantErr: "positive length"},
		{name: "duplicate key", content: "columns:\n  - key: a\n  - key: a\n", wantErr: "duplicate column"},
		{name: "no columns", content: "description: empty\n", wantErr: "no columns"},
		{name: "unknown default", content: "columns:\n  - key: a\n    default: tomorrow\n", wantErr: "unknown default"},
		{name: "malformed scalar rule", content: "columns:\n  - key: a\n    rules: [\"digits(x)\"]\n", wantErr: "malformed rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "broken.yaml", tt.content)

			_, err := LoadProfileConfigs(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRuleSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    RuleSpec
		wantErr bool
	}{
		{in: "required", want: RuleSpec{Type: RuleRequired}},
		{in: " Not_Past ", want: RuleSpec{Type: RuleNotPast}},
		{in: "digits(8)", want: RuleSpec{Type: RuleDigits, Length: 8}},
		{in: "digits( 7 )", want: RuleSpec{Type: RuleDigits, Length: 7}},
		{in: "digits(x)", wantErr: true},
		{in: "digits)7(", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRuleSpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleSpec_MarshalRoundTrip(t *testing.T) {
	in := ProfileConfig{
		Name:       "bonus",
		BatchField: "batchId",
		Columns: []ColumnConfig{{
			Key: "bankId", Label: "Bank ID", Default: DefaultText,
			Rules: []RuleSpec{{Type: RuleRequired}, {Type: RuleDigits, Length: 7, Message: "Seven digits"}},
		}},
	}

	data, err := yaml.Marshal(in)
	require.NoError(t, err)

	var out ProfileConfig
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestBuiltinProfiles(t *testing.T) {
	byName := map[string]ProfileConfig{}
	for _, p := range BuiltinProfiles() {
		byName[p.Name] = p
	}

	payments := byName["payments"]
	date := payments.Columns[1]
	assert.Equal(t, "date", date.Key)
	assert.Equal(t, DefaultToday, date.Default)
	assert.Equal(t, RuleNotPast, date.Rules[2].Type)

	for _, name := range []string{"transfers", "employees"} {
		for _, col := range byName[name].Columns {
			for _, r := range col.Rules {
				assert.NotEqual(t, RuleNotPast, r.Type, "%s.%s", name, col.Key)
			}
		}
	}

	assert.Equal(t, "TXN-", byName["transfers"].IDPrefix)
	assert.Equal(t, "EMP-", byName["employees"].IDPrefix)
}

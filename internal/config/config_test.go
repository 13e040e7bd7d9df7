package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tempDir, "home"))
	for _, k := range []string{"QATALLY_ROOT", "QATALLY_OUT_DIR", "QATALLY_PARALLELISM", "QATALLY_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return tempDir
}

func TestDefault_Validates(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())
}

func TestParse_MergesUserOverDefault_When_SectionsPresent(t *testing.T) {
	t.Parallel()

	doc := `
default_config:
  sheet_name: Tests
  date_column: Date
user_config:
  date_column: ExecutedOn
  statuses: [OK, NG, BK, NY, TS, QA, NT, XX]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "Tests", cfg.SheetName)
	assert.Equal(t, "ExecutedOn", cfg.DateColumn)
	assert.Equal(t, []string{"OK", "NG", "BK", "NY", "TS", "QA", "NT", "XX"}, cfg.Statuses)
	// keys absent from both sections keep built-in values
	assert.Equal(t, "試験結果", cfg.ResultColumn)
}

func TestParse_ReadsFlatDocument_When_NoSections(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("sheet_name: Flat\nparallelism: 2\n"))
	require.NoError(t, err)

	assert.Equal(t, "Flat", cfg.SheetName)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, "一覧", cfg.ListSheet)
}

func TestParse_AcceptsJSON_When_LegacyConfigJSON(t *testing.T) {
	t.Parallel()

	doc := `{"default_config": {"bug_file_name": "bugs.xlsx"}, "user_config": {"qa_file_name": "qa.xlsx"}}`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "bugs.xlsx", cfg.BugFileName)
	assert.Equal(t, "qa.xlsx", cfg.QAFileName)
}

func TestParse_ReturnsError_When_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("sheet_name: [unterminated"))
	assert.Error(t, err)
}

func TestValidate_RejectsRegexWithoutCaptureGroup(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.BugRegex = `内部バグ#\d+`
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bug_regex")
}

func TestValidate_RejectsTemplateWithoutPlaceholder(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.QAPatternTemplate = "内部QA#"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qa_pattern_template")
}

func TestValidate_RejectsRoleOutsideStatuses(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.StatusQuestion = "Q"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status_question")
}

func TestValidate_RejectsMissingRequiredKey(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.DateColumn = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DateColumn")
}

func TestValidate_RejectsSameListFileNames(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.QAFileName = cfg.BugFileName
	assert.Error(t, cfg.Validate())
}

func TestListColumns_PrependNo(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.BugFileColumns = []string{"Status", "No", "Summary"}
	assert.Equal(t, []string{"No", "Status", "Summary"}, cfg.BugListColumns())
	assert.Equal(t, "No", cfg.QAListColumns()[0])
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", FileName)
	require.NoError(t, WriteDefault(path, false))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path, false), "existing file must not be overwritten")
	assert.NoError(t, WriteDefault(path, true))
}

func TestGetConfigPath_ReturnsLocalConfig_When_FileExists(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(FileName, []byte("sheet_name: local\n"), 0o600))

	assert.Equal(t, FileName, getConfigPath())
}

func TestGetConfigPath_UsesXDGPath_When_LocalMissing(t *testing.T) {
	tempDir := chdirTemp(t)

	configPath := filepath.Join(tempDir, "xdg", "qatally", FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("sheet_name: xdg\n"), 0o600))

	assert.Equal(t, configPath, getConfigPath())
}

func TestGetConfigPath_ReturnsEmpty_When_NoConfigAvailable(t *testing.T) {
	chdirTemp(t)

	assert.Equal(t, "", getConfigPath())
}

func TestResolve_AppliesPriority_CLIOverEnvOverFile(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(FileName, []byte("selected_folder_path: /from/file\nparallelism: 3\nlog_level: warn\n"), 0o600))
	t.Setenv("QATALLY_ROOT", "/from/env")
	t.Setenv("QATALLY_PARALLELISM", "6")

	res, err := Resolve(Flags{Parallelism: 8, ParallelismSet: true})
	require.NoError(t, err)

	assert.Equal(t, "/from/env", res.Root)
	assert.Equal(t, "env", res.RootSource)
	assert.Equal(t, 8, res.Parallelism)
	assert.Equal(t, "cli", res.ParallelismSource)
	assert.Equal(t, "warn", res.LogLevel)
	assert.Equal(t, "file", res.LogLevelSource)
	assert.Equal(t, FileName, res.Path)
}

func TestResolve_UsesDefaults_When_NoFile(t *testing.T) {
	chdirTemp(t)

	res, err := Resolve(Flags{})
	require.NoError(t, err)
	assert.Equal(t, "", res.Path)
	assert.Equal(t, "default", res.RootSource)
	assert.Equal(t, 4, res.Parallelism)
}

func TestResolve_ReturnsError_When_ResolvedConfigInvalid(t *testing.T) {
	chdirTemp(t)

	_, err := Resolve(Flags{LogLevel: "verbose", LogLevelSet: true})
	assert.Error(t, err)
}

func TestResolve_ReturnsError_When_ExplicitPathMissing(t *testing.T) {
	chdirTemp(t)

	_, err := Resolve(Flags{ConfigPath: "does-not-exist.yaml"})
	assert.Error(t, err)
}

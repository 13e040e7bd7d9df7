package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Placeholder is the integer slot in reference templates.
const Placeholder = "{Int}"

// FileName is the config file looked up in the working directory and the
// user config directory.
const FileName = ".qatally.yaml"

// Config is the flat configuration contract shared by every pipeline stage.
// Field names never appear hardcoded elsewhere; stages read them from here.
type Config struct {
	// Input locations
	Root        string   `yaml:"selected_folder_path"`
	BugListDir  string   `yaml:"bug_list_folder"`
	QAListDir   string   `yaml:"qa_list_folder"`
	OutDir      string   `yaml:"out_dir"`
	Include     []string `yaml:"include" validate:"min=1,dive,required"`
	Exclude     []string `yaml:"exclude"`
	Parallelism int      `yaml:"parallelism" validate:"gte=1,lte=64"`
	LogLevel    string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string   `yaml:"log_format" validate:"oneof=auto text json"`

	// Report sheet layout
	SheetName      string `yaml:"sheet_name" validate:"required"`
	ListSheet      string `yaml:"list_sheet" validate:"required"`
	DateColumn     string `yaml:"date_column" validate:"required"`
	ResultColumn   string `yaml:"result_column" validate:"required"`
	TestIDColumn   string `yaml:"test_id_column" validate:"required"`
	TestNameColumn string `yaml:"test_name_column" validate:"required"`
	BugNoColumn    string `yaml:"bug_no_column" validate:"required"`
	QANoColumn     string `yaml:"qa_no_column" validate:"required"`

	// External lists
	BugFileName        string   `yaml:"bug_file_name" validate:"required"`
	QAFileName         string   `yaml:"qa_file_name" validate:"required,nefield=BugFileName"`
	BugPatternTemplate string   `yaml:"bug_pattern_template" validate:"required"`
	QAPatternTemplate  string   `yaml:"qa_pattern_template" validate:"required"`
	BugRegex           string   `yaml:"bug_regex" validate:"required"`
	QARegex            string   `yaml:"qa_regex" validate:"required"`
	BugFileColumns     []string `yaml:"bug_file_columns" validate:"min=1,dive,required"`
	QAFileColumns      []string `yaml:"qa_file_columns" validate:"min=1,dive,required"`
	BugOutputColumns   []string `yaml:"bug_output_columns" validate:"min=1,dive,required"`
	QAOutputColumns    []string `yaml:"qa_output_columns" validate:"min=1,dive,required"`

	// Status codes and their roles
	Statuses        []string `yaml:"statuses" validate:"min=1,unique,dive,required"`
	StatusOK        string   `yaml:"status_ok" validate:"required"`
	StatusFailed    string   `yaml:"status_failed" validate:"required"`
	StatusBlocked   string   `yaml:"status_blocked" validate:"required"`
	StatusQuestion  string   `yaml:"status_question" validate:"required"`
	StatusNotTested string   `yaml:"status_not_tested" validate:"required"`

	// Output labels
	CountColumn      string `yaml:"count_column" validate:"required"`
	FileNameColumn   string `yaml:"file_name_column" validate:"required"`
	TotalItemsColumn string `yaml:"total_items_column" validate:"required"`
	ProgressColumn   string `yaml:"progress_column" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Include:     []string{"**/*.xlsx"},
		Exclude:     []string{"**/~$*", "**/.qatally-*", "**/result_[0-9]*_[0-9]*.xlsx"},
		Parallelism: 4,
		LogLevel:    "info",
		LogFormat:   "auto",
		OutDir:      ".",

		SheetName:      "試験表",
		ListSheet:      "一覧",
		DateColumn:     "実施日",
		ResultColumn:   "試験結果",
		TestIDColumn:   "試験項目ID",
		TestNameColumn: "試験名",
		BugNoColumn:    "バグ_DB_No",
		QANoColumn:     "Q&A_DB_No",

		BugFileName:        "内部バグリスト.xlsx",
		QAFileName:         "内部QAリスト.xlsx",
		BugPatternTemplate: "内部バグ#{Int}",
		QAPatternTemplate:  "内部QA#{Int}",
		BugRegex:           `内部バグ#(\d+)`,
		QARegex:            `内部QA#(\d+)`,
		BugFileColumns:     []string{"No", "ステータス", "概要", "JIRA#"},
		QAFileColumns:      []string{"No", "コメント", "質問者", "回答", "ステータス"},
		BugOutputColumns:   []string{"バグ_DB_No", "JIRA#", "件数", "試験名", "ステータス", "概要"},
		QAOutputColumns:    []string{"Q&A_DB_No", "件数", "試験名", "質問者", "コメント", "回答", "ステータス"},

		Statuses:        []string{"OK", "NG", "BK", "NY", "TS", "QA", "NT"},
		StatusOK:        "OK",
		StatusFailed:    "NG",
		StatusBlocked:   "BK",
		StatusQuestion:  "QA",
		StatusNotTested: "NT",

		CountColumn:      "件数",
		FileNameColumn:   "file_name",
		TotalItemsColumn: "総項目数",
		ProgressColumn:   "進捗率(%)",
	}
}

// fileLayout mirrors the on-disk document.
type fileLayout struct {
	Default yaml.Node `yaml:"default_config"`
	User    yaml.Node `yaml:"user_config"`
}

// Parse decodes a config document on top of the built-in defaults.
// default_config is applied first, then user_config.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if layout.Default.IsZero() && layout.User.IsZero() {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
		return cfg, nil
	}

	for _, section := range []*yaml.Node{&layout.Default, &layout.User} {
		if section.IsZero() {
			continue
		}
		if err := section.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config section: %w", err)
		}
	}
	return cfg, nil
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from --config or the lookup below
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault writes a fresh config file holding the built-in values under
// default_config and an empty user_config. It refuses to overwrite an
// existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	doc := struct {
		Default *Config        `yaml:"default_config"`
		User    map[string]any `yaml:"user_config"`
	}{Default: Default(), User: map[string]any{}}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// Marshal renders the config as a flat YAML document.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the cross-field rules the
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	for _, p := range []struct{ key, expr string }{
		{"bug_regex", c.BugRegex},
		{"qa_regex", c.QARegex},
	} {
		re, err := regexp.Compile(p.expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
			continue
		}
		if re.NumSubexp() < 1 {
			errs = append(errs, fmt.Errorf("%s: %q has no capture group", p.key, p.expr))
		}
	}
	for _, t := range []struct{ key, tmpl string }{
		{"bug_pattern_template", c.BugPatternTemplate},
		{"qa_pattern_template", c.QAPatternTemplate},
	} {
		if strings.Count(t.tmpl, Placeholder) != 1 {
			errs = append(errs, fmt.Errorf("%s: %q must contain %s exactly once", t.key, t.tmpl, Placeholder))
		}
	}
	for _, r := range []struct{ key, code string }{
		{"status_ok", c.StatusOK},
		{"status_failed", c.StatusFailed},
		{"status_blocked", c.StatusBlocked},
		{"status_question", c.StatusQuestion},
		{"status_not_tested", c.StatusNotTested},
	} {
		if !slices.Contains(c.Statuses, r.code) {
			errs = append(errs, fmt.Errorf("%s: %q is not listed in statuses", r.key, r.code))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// BugListColumns returns the required columns of the defect list: "No" plus
// the configured descriptive columns, without duplicates.
func (c *Config) BugListColumns() []string {
	return withNo(c.BugFileColumns)
}

// QAListColumns returns the required columns of the question list.
func (c *Config) QAListColumns() []string {
	return withNo(c.QAFileColumns)
}

// ListKeyColumn is the numeric identifier column of both external lists.
const ListKeyColumn = "No"

func withNo(cols []string) []string {
	out := []string{ListKeyColumn}
	for _, c := range cols {
		if c != ListKeyColumn && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// ReportRequiredColumns are the columns a report sheet must carry.
// The test-name column is optional and synthesized when absent.
func (c *Config) ReportRequiredColumns() []string {
	return []string{c.TestIDColumn, c.ResultColumn, c.DateColumn, c.BugNoColumn, c.QANoColumn}
}

// DefectStatuses are the codes whose rows reference the defect list.
func (c *Config) DefectStatuses() []string {
	return []string{c.StatusFailed, c.StatusBlocked}
}

// Package config handles configuration loading and merging for qatally.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--root, --out-dir, --parallelism, --log-level, --log-format)
//  2. Environment variables (QATALLY_ROOT, QATALLY_OUT_DIR, QATALLY_PARALLELISM, QATALLY_LOG_LEVEL)
//  3. YAML config file (--config, .qatally.yaml in the working directory, or
//     ~/.config/qatally/.qatally.yaml)
//  4. Hardcoded defaults
//
// # File Layout
//
// The file carries two sections. default_config holds the shipped values and
// user_config holds the user's overrides; a key present in user_config wins.
// A file without either section is read as a flat user_config. Since JSON is
// valid YAML, a config.json written by earlier tooling loads unchanged.
//
//	default_config:
//	  sheet_name: 試験表
//	  date_column: 実施日
//	user_config:
//	  selected_folder_path: /data/reports
//
// # Key Fields
//
//   - sheet_name: report sheet read from every non-list workbook
//   - *_column: report column names (date, result, test id, test name, references)
//   - bug_* / qa_*: external list file name, required columns, regex and render template
//   - statuses, status_*: the recognized result codes and the role each code plays
package config

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Flags holds the values of command-line flags that override the file.
type Flags struct {
	ConfigPath  string
	Root        string
	OutDir      string
	Parallelism int
	LogLevel    string
	LogFormat   string

	// Flags to track if they were explicitly set by the user
	RootSet        bool
	OutDirSet      bool
	ParallelismSet bool
	LogLevelSet    bool
	LogFormatSet   bool
}

// Resolved is the final configuration plus where it came from.
type Resolved struct {
	*Config

	// Path of the config file that was loaded, empty when defaults were used.
	Path string

	// Resolution metadata (for debugging)
	RootSource        string // "cli", "env", "file", "default"
	ParallelismSource string
	LogLevelSource    string
}

// Resolve loads configuration from all sources with explicit priority order:
// CLI flags > environment > config file > defaults. The result is validated.
func Resolve(flags Flags) (*Resolved, error) {
	path := flags.ConfigPath
	if path == "" {
		path = getConfigPath()
	}

	cfg := Default()
	fileSource := "default"
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		fileSource = "file"
	}

	res := &Resolved{
		Config:            cfg,
		Path:              path,
		RootSource:        fileSource,
		ParallelismSource: fileSource,
		LogLevelSource:    fileSource,
	}

	if flags.RootSet {
		res.Root = flags.Root
		res.RootSource = "cli"
	} else if v := os.Getenv("QATALLY_ROOT"); v != "" {
		res.Root = v
		res.RootSource = "env"
	}

	if flags.OutDirSet {
		res.OutDir = flags.OutDir
	} else if v := os.Getenv("QATALLY_OUT_DIR"); v != "" {
		res.OutDir = v
	}

	if flags.ParallelismSet {
		res.Parallelism = flags.Parallelism
		res.ParallelismSource = "cli"
	} else if n := getEnvInt("QATALLY_PARALLELISM"); n != nil {
		res.Parallelism = *n
		res.ParallelismSource = "env"
	}

	if flags.LogLevelSet {
		res.LogLevel = strings.ToLower(flags.LogLevel)
		res.LogLevelSource = "cli"
	} else if v := os.Getenv("QATALLY_LOG_LEVEL"); v != "" {
		res.LogLevel = strings.ToLower(v)
		res.LogLevelSource = "env"
	}

	if flags.LogFormatSet {
		res.LogFormat = strings.ToLower(flags.LogFormat)
	}

	if err := res.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	return res, nil
}

// getConfigPath tries to find the .qatally.yaml configuration file.
// It checks the local directory first, then the XDG user config directory.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	// An empty or root path is not suitable for building the XDG location.
	if err == nil && configHome != "" && configHome != "/" {
		xdgPath := filepath.Join(configHome, "qatally", FileName)
		if _, errStat := os.Stat(xdgPath); errStat == nil {
			return xdgPath
		}
	}
	return ""
}

// UserConfigPath is where `config init --user` writes.
func UserConfigPath() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(configHome, "qatally", FileName), nil
}

// getEnvInt reads an integer from the environment.
// Returns nil if unset or unparsable.
func getEnvInt(key string) *int {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return nil
	}
	return &n
}

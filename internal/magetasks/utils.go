package magetasks

import (
	"errors"
	"os/exec"
	"strings"
)

// IsCommandNotFound reports whether err means the tool is not installed.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") || strings.Contains(msg, "no such file or directory")
}

package magetasks

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/sh"
)

// LDFlags stamps version metadata into internal/version.
func LDFlags(version, commit string, built time.Time) string {
	pkg := ModulePath + "/internal/version"
	return fmt.Sprintf("-s -w -X '%s.Version=%s' -X '%s.CommitHash=%s' -X '%s.BuildDate=%s'",
		pkg, version, pkg, commit, pkg, built.UTC().Format(time.RFC3339))
}

// BuildAll builds the qatally binary.
func BuildAll() error {
	PrintH2Header("Build")

	ldflags := LDFlags(gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*"),
		gitOutput("unknown", "rev-parse", "--short", "HEAD"), time.Now())
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", BinPath, MainPackage); err != nil {
		PrintError("Build failed")
		return err
	}
	PrintSuccess("Built: " + BinPath)
	return nil
}

// Clean removes build and coverage artifacts.
func Clean() error {
	PrintH2Header("Clean")
	for _, p := range []string{"bin", "coverage.out"} {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	PrintSuccess("Cleaned build artifacts")
	return nil
}

// gitOutput runs git and falls back when it is unavailable or fails.
func gitOutput(fallback string, args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil && !IsCommandNotFound(err) {
			fmt.Fprintf(os.Stderr, "git %s: %v\n", strings.Join(args, " "), err)
		}
		return fallback
	}
	return strings.TrimSpace(out)
}

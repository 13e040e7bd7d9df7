package magetasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

var golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter. Optional tools that are not installed are
// reported and skipped.
func LintAll() error {
	PrintH2Header("Lint")
	var errs []error
	for _, lint := range []func() error{LintFormat, LintVet, LintGolangci} {
		if err := lint(); err != nil && !IsCommandNotFound(err) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintFormat fails when gofmt would change any file.
func LintFormat() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("gofmt needed:\n%s", files)
	}
	return nil
}

// LintVet runs go vet.
func LintVet() error {
	return sh.RunV("go", "vet", "./...")
}

// LintGolangci runs golangci-lint.
func LintGolangci() error {
	err := sh.RunV("golangci-lint", "run", golangciDisabled, "--timeout=5m", "./...")
	if IsCommandNotFound(err) {
		PrintWarning("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
	}
	return err
}

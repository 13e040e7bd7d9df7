package magetasks

import "github.com/magefile/mage/sh"

// TestAll runs every package's tests.
func TestAll() error {
	PrintH2Header("Tests")
	if err := sh.RunV("go", "test", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}
	PrintSuccess("All tests passed")
	return nil
}

// TestCoverage runs the tests with a coverage profile and prints the
// per-function summary.
func TestCoverage() error {
	PrintH2Header("Test Coverage")
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// TestRace runs the tests under the race detector. Ingest reads workbooks
// concurrently, so this is worth running before a release.
func TestRace() error {
	PrintH2Header("Race Detector")
	if err := sh.RunV("go", "test", "-race", "./..."); err != nil {
		PrintError("Race detector found issues")
		return err
	}
	PrintSuccess("No race conditions detected")
	return nil
}

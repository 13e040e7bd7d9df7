// Package magetasks holds the build, test and lint tasks behind the
// magefile. Tasks shell out through mage's sh helpers so their output
// streams straight to the terminal.
package magetasks

// qatally tallies test-progress spreadsheets into a summary workbook.
//
// Usage:
//
//	qatally run --root ./reports --out-dir ./out
//	qatally watch --root ./reports
//	qatally config init
//	qatally config show
//
// Each run reads every report workbook under the root, writes one
// result_YYYYMMDD_HHMM.xlsx and prints a progress report to stdout.
//
// Output modes for the printed report (--format):
//
//	terminal  styled tables and sparklines (default when stdout is a TTY)
//	llm       terse plain text (default when piped)
//	json      structured JSON for automation
//
// Exit codes: 0 on success (an empty input folder included), 1 when a
// result file cannot be written, 2 on usage or configuration errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error  { return &exitError{code: exitUsage, err: err} }
func failedError(err error) error { return &exitError{code: exitFailed, err: err} }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "qatally: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		// cobra's own flag and argument errors
		return exitUsage
	}
	return exitOK
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "qatally",
		Short:         "Tally test-progress spreadsheets into a summary workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default .qatally.yaml, then the user config dir)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "auto", "log format: auto, text, json")

	root.AddCommand(
		newRunCmd(g),
		newWatchCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

// resolve merges flags, environment and config file into a validated config.
func resolve(cmd *cobra.Command, g *globalFlags, rf *runFlags) (*config.Resolved, error) {
	flags := config.Flags{
		ConfigPath:   g.configPath,
		LogLevel:     g.logLevel,
		LogFormat:    g.logFormat,
		LogLevelSet:  cmd.Flags().Changed("log-level"),
		LogFormatSet: cmd.Flags().Changed("log-format"),
	}
	if rf != nil {
		flags.Root = rf.root
		flags.OutDir = rf.outDir
		flags.Parallelism = rf.parallelism
		flags.RootSet = cmd.Flags().Changed("root")
		flags.OutDirSet = cmd.Flags().Changed("out-dir")
		flags.ParallelismSet = cmd.Flags().Changed("parallelism")
	}
	cfg, err := config.Resolve(flags)
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Resolved, w io.Writer) *slog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: w,
	})
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width for w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/export"
	"github.com/dkoosis/qatally/internal/metrics"
	"github.com/dkoosis/qatally/internal/pipeline"
	"github.com/dkoosis/qatally/internal/watch"
	"github.com/dkoosis/qatally/pkg/mapper"
	"github.com/dkoosis/qatally/pkg/pattern"
	"github.com/dkoosis/qatally/pkg/render"
	"github.com/spf13/cobra"
)

var formats = map[string]bool{"auto": true, "terminal": true, "llm": true, "json": true}

// runFlags are shared by run and watch.
type runFlags struct {
	root        string
	out         string
	outDir      string
	parallelism int
	format      string
	theme       string
	metricsFile string
	noExport    bool
	top         int
}

func (rf *runFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&rf.root, "root", "", "folder holding the report workbooks")
	f.StringVarP(&rf.out, "out", "o", "", "result workbook path (overrides --out-dir)")
	f.StringVar(&rf.outDir, "out-dir", "", "folder for result_YYYYMMDD_HHMM.xlsx")
	f.IntVarP(&rf.parallelism, "parallelism", "j", 0, "workbooks read concurrently")
	f.StringVar(&rf.format, "format", "auto", "report format: auto, terminal, llm, json")
	f.StringVar(&rf.theme, "theme", "default", "terminal theme: default, orca, mono")
	f.StringVar(&rf.metricsFile, "metrics-file", "", "write Prometheus gauges to this textfile")
	f.BoolVar(&rf.noExport, "no-export", false, "skip writing the result workbook")
	f.IntVar(&rf.top, "top", mapper.DefaultTop, "entries per defect and question leaderboard")
}

func (rf *runFlags) check() error {
	if !formats[rf.format] {
		return usageError(fmt.Errorf("unknown format %q (expected auto, terminal, llm, json)", rf.format))
	}
	return nil
}

func newRunCmd(g *globalFlags) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tally the reports once and write the result workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rf.check(); err != nil {
				return err
			}
			cfg, err := resolve(cmd, g, rf)
			if err != nil {
				return err
			}
			r := newRunner(cfg, rf, cmd.OutOrStdout(), cmd.ErrOrStderr())
			_, err = r.once(cmd.Context(), nil)
			return err
		},
	}
	rf.register(cmd)
	return cmd
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	rf := &runFlags{}
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run whenever a report workbook under the root changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rf.check(); err != nil {
				return err
			}
			cfg, err := resolve(cmd, g, rf)
			if err != nil {
				return err
			}
			r := newRunner(cfg, rf, cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctx := cmd.Context()

			prev, err := r.once(ctx, nil)
			if err != nil {
				return err
			}
			err = watch.Run(ctx, cfg.Root, watch.Options{
				Include:  cfg.Include,
				Exclude:  cfg.Exclude,
				Debounce: debounce,
				Logger:   r.log,
			}, func(ctx context.Context) {
				b, err := r.once(ctx, prev)
				if err != nil {
					r.log.Error("rerun failed", "error", err)
					return
				}
				prev = b
			})
			if err != nil {
				return failedError(err)
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a rerun")
	return cmd
}

// runner performs one pipeline pass and delivers every output of it.
type runner struct {
	cfg    *config.Resolved
	flags  *runFlags
	log    *slog.Logger
	stdout io.Writer
	format string
}

func newRunner(cfg *config.Resolved, rf *runFlags, stdout, stderr io.Writer) *runner {
	if rf.out != "" {
		// keep an explicit result path out of later scans of the root
		cfg.Exclude = append(cfg.Exclude, "**/"+filepath.Base(rf.out))
	}
	format := rf.format
	if format == "auto" {
		format = "llm"
		if isTTYWriter(stdout) {
			format = "terminal"
		}
	}
	return &runner{
		cfg:    cfg,
		flags:  rf,
		log:    newLogger(cfg, stderr),
		stdout: stdout,
		format: format,
	}
}

// once runs the pipeline, writes the workbook and metrics file, and prints
// the report. prev, when set, adds a comparison with the previous run.
func (r *runner) once(ctx context.Context, prev *pipeline.Bundle) (*pipeline.Bundle, error) {
	if r.cfg.Path != "" {
		r.log.Debug("config loaded", "path", r.cfg.Path, "root_source", r.cfg.RootSource)
	}
	b, rep, err := pipeline.Run(ctx, r.cfg.Config, pipeline.Options{Logger: r.log})
	if err != nil {
		return nil, usageError(err)
	}
	log := r.log.With("run_id", rep.RunID)

	if !r.flags.noExport {
		path := export.Path(r.flags.out, r.cfg.OutDir, rep.StartedAt)
		if err := export.Write(path, b, r.cfg.Config); err != nil {
			return nil, failedError(err)
		}
		log.Info("workbook written", "path", path, "sheets", len(export.SheetNames(b, r.cfg.Config)))
	}

	if r.flags.metricsFile != "" {
		g := metrics.New()
		g.Observe(b, rep)
		if err := g.WriteFile(r.flags.metricsFile); err != nil {
			return nil, failedError(err)
		}
		log.Debug("metrics written", "path", r.flags.metricsFile)
	}

	patterns := mapper.FromBundle(b, rep, r.cfg.Config, mapper.Options{Top: r.flags.top})
	if c := mapper.Compare(prev, b, r.cfg.Config); c != nil {
		patterns = slices.Insert(patterns, 1, pattern.Pattern(c))
	}
	fmt.Fprint(r.stdout, r.renderer().Render(patterns))
	log.Info("run finished", "duration", rep.Duration)
	return b, nil
}

func (r *runner) renderer() render.Renderer {
	switch r.format {
	case "json":
		return render.NewJSON()
	case "llm":
		return render.NewLLM()
	default:
		theme := render.ThemeByName(r.flags.theme)
		if os.Getenv("NO_COLOR") != "" {
			theme = render.MonoTheme()
		}
		return render.NewTerminal(theme, termWidth(r.stdout))
	}
}

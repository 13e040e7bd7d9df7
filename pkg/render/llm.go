package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/dkoosis/qatally/pkg/pattern"
	"github.com/mattn/go-runewidth"
)

// LLM renders patterns as terse plain text for AI consumption and logs.
// No ANSI codes; columns are aligned by display width so CJK headers line up.
type LLM struct{}

// NewLLM creates an LLM renderer.
func NewLLM() *LLM {
	return &LLM{}
}

// Render formats all patterns as plain text, in input order. A run summary
// becomes the SCOPE line.
func (l *LLM) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder
	for _, p := range patterns {
		switch v := p.(type) {
		case *pattern.Summary:
			l.summary(&sb, v)
		case *pattern.Table:
			l.table(&sb, v)
		case *pattern.Leaderboard:
			l.leaderboard(&sb, v)
		case *pattern.Sparkline:
			l.sparkline(&sb, v)
		case *pattern.Comparison:
			l.comparison(&sb, v)
		}
	}
	return sb.String()
}

func (l *LLM) summary(sb *strings.Builder, s *pattern.Summary) {
	if s.Kind == pattern.SummaryKindRun {
		parts := make([]string, 0, len(s.Metrics))
		for _, m := range s.Metrics {
			parts = append(parts, m.Label+" "+m.Value)
		}
		sb.WriteString("SCOPE: " + strings.Join(parts, ", ") + "\n")
		return
	}
	if len(s.Metrics) == 0 {
		return
	}
	sb.WriteString("\n## " + s.Label + "\n")
	for _, m := range s.Metrics {
		prefix := "  "
		switch m.Kind {
		case kindError:
			prefix = "  ERR "
		case kindWarning:
			prefix = "  WARN "
		}
		sb.WriteString(prefix + m.Label + ": " + m.Value + "\n")
	}
}

func (l *LLM) table(sb *strings.Builder, t *pattern.Table) {
	if len(t.Rows) == 0 {
		return
	}
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, r := range t.Rows {
		for i, c := range r.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	line := func(cells []string) {
		out := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			if i == 0 {
				out[i] = padRight(c, widths[i])
			} else {
				out[i] = padLeft(c, widths[i])
			}
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(out, "  "), " ") + "\n")
	}

	sb.WriteString("\n## " + t.Label + "\n")
	line(t.Columns)
	for _, r := range t.Rows {
		line(r.Cells)
	}
}

func (l *LLM) leaderboard(sb *strings.Builder, lb *pattern.Leaderboard) {
	if len(lb.Items) == 0 {
		return
	}
	header := lb.Label
	if lb.TotalCount > len(lb.Items) {
		header += fmt.Sprintf(" (top %d of %d)", len(lb.Items), lb.TotalCount)
	}
	sb.WriteString("\n## " + header + "\n")
	for _, item := range lb.Items {
		sb.WriteString(fmt.Sprintf("  %d. %s %s", item.Rank, item.Name, item.Metric))
		if item.Context != "" {
			sb.WriteString(" [" + item.Context + "]")
		}
		sb.WriteString("\n")
	}
}

func (l *LLM) sparkline(sb *strings.Builder, s *pattern.Sparkline) {
	if len(s.Values) == 0 {
		return
	}
	vals := make([]string, len(s.Values))
	for i, v := range s.Values {
		vals[i] = formatNumber(v)
	}
	sb.WriteString("\n" + s.Label)
	if s.From != "" {
		sb.WriteString(" " + s.From + ".." + s.To)
	}
	sb.WriteString(": " + strings.Join(vals, " ") + s.Unit + "\n")
}

func (l *LLM) comparison(sb *strings.Builder, c *pattern.Comparison) {
	if len(c.Changes) == 0 {
		return
	}
	sb.WriteString("\n## " + c.Label + "\n")
	for _, item := range c.Changes {
		sign := "+"
		if item.Change < 0 {
			sign = "-"
		}
		sb.WriteString(fmt.Sprintf("  %s: %s -> %s (%s%s%s)\n",
			item.Label, item.Before, item.After, sign, formatNumber(math.Abs(item.Change)), item.Unit))
	}
}

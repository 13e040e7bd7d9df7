package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dkoosis/qatally/pkg/pattern"
	"github.com/mattn/go-runewidth"
)

const maxNameWidth = 40

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Leaderboard:
		return t.renderLeaderboard(v)
	case *pattern.Table:
		return t.renderTable(v)
	case *pattern.Sparkline:
		return t.renderSparkline(v)
	case *pattern.Comparison:
		return t.renderComparison(v)
	default:
		return ""
	}
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	if len(s.Metrics) == 0 && s.Label == "" {
		return ""
	}
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Bold.Render(s.Label))
		sb.WriteString("\n")
	}
	for _, m := range s.Metrics {
		sb.WriteString("  ")
		icon, style := t.iconStyle(m.Kind)
		sb.WriteString(style.Render(icon + " " + m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTable(tt *pattern.Table) string {
	if len(tt.Rows) == 0 {
		return ""
	}
	rows := make([][]string, len(tt.Rows))
	for i, r := range tt.Rows {
		rows[i] = r.Cells
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.theme.Border).
		Headers(tt.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			switch {
			case row == table.HeaderRow:
				return s.Inherit(t.theme.Bold)
			case row >= 0 && row < len(tt.Rows) && tt.Rows[row].Total:
				return s.Inherit(t.theme.Primary).Bold(true)
			}
			return s
		})

	var sb strings.Builder
	if tt.Label != "" {
		sb.WriteString(t.theme.Bold.Render(tt.Label))
		sb.WriteString("\n")
	}
	sb.WriteString(tbl.String())
	sb.WriteString("\n")
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	if l.Label != "" {
		header := l.Label
		if l.TotalCount > len(l.Items) {
			header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
		}
		sb.WriteString(t.theme.Bold.Render(header))
		sb.WriteString("\n")
	}

	maxName, maxMetric := 0, 0
	for _, item := range l.Items {
		maxName = max(maxName, runewidth.StringWidth(item.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
	}
	maxName = min(maxName, maxNameWidth)

	for _, item := range l.Items {
		sb.WriteString("  ")
		if l.ShowRank {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", item.Rank)))
		}
		name := runewidth.Truncate(item.Name, maxName, "...")
		sb.WriteString(t.theme.Primary.Render(padRight(name, maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Warning.Render(padLeft(item.Metric, maxMetric)))
		if item.Context != "" {
			room := t.width - maxName - maxMetric - 10
			if room > 8 {
				sb.WriteString("  ")
				sb.WriteString(t.theme.Muted.Render(runewidth.Truncate(item.Context, room, "...")))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func (t *Terminal) renderSparkline(s *pattern.Sparkline) string {
	if len(s.Values) == 0 {
		return ""
	}
	var sb strings.Builder
	if s.Label != "" {
		sb.WriteString(t.theme.Primary.Render(s.Label + ": "))
	}
	if s.From != "" {
		sb.WriteString(t.theme.Muted.Render(s.From + " "))
	}
	sb.WriteString(t.theme.Success.Render(spark(s)))
	if s.To != "" && s.To != s.From {
		sb.WriteString(t.theme.Muted.Render(" " + s.To))
	}

	latest := s.Values[len(s.Values)-1]
	sb.WriteString(t.theme.Muted.Render(" last " + formatNumber(latest) + s.Unit))
	sb.WriteString("\n")
	return sb.String()
}

// spark draws one block per value, scaled between the pattern's bounds.
func spark(s *pattern.Sparkline) string {
	minVal, maxVal := s.Min, s.Max
	if minVal == 0 && maxVal == 0 {
		minVal, maxVal = s.Values[0], s.Values[0]
		for _, v := range s.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	valueRange := maxVal - minVal
	if valueRange == 0 {
		valueRange = 1
	}

	last := len(sparkBlocks) - 1
	var out strings.Builder
	for _, v := range s.Values {
		idx := int((v - minVal) / valueRange * float64(last))
		out.WriteRune(sparkBlocks[max(0, min(idx, last))])
	}
	return out.String()
}

func (t *Terminal) renderComparison(c *pattern.Comparison) string {
	if len(c.Changes) == 0 {
		return ""
	}
	var sb strings.Builder
	if c.Label != "" {
		sb.WriteString(t.theme.Bold.Render(c.Label))
		sb.WriteString("\n")
	}
	for _, item := range c.Changes {
		sb.WriteString("  ")
		sb.WriteString(item.Label + ": ")
		sb.WriteString(t.theme.Muted.Render(item.Before + " → " + item.After))
		sb.WriteString(" ")

		arrow, style := "=", t.theme.Muted
		if item.Change != 0 {
			better := (item.Change > 0) == item.HigherIsBetter
			arrow = t.theme.Icons.Down
			if item.Change > 0 {
				arrow = t.theme.Icons.Up
			}
			style = t.theme.Warning
			if better {
				style = t.theme.Success
			}
		}
		sb.WriteString(style.Render(arrow + " " + formatNumber(math.Abs(item.Change)) + item.Unit))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case kindSuccess:
		return t.theme.Icons.Pass, t.theme.Success
	case kindError:
		return t.theme.Icons.Fail, t.theme.Error
	case kindWarning:
		return t.theme.Icons.Warn, t.theme.Warning
	default:
		return t.theme.Icons.Info, t.theme.Primary
	}
}

const (
	kindSuccess = "success"
	kindError   = "error"
	kindWarning = "warning"
)

// formatNumber drops the fraction of whole numbers.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func padLeft(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

package render

import "github.com/charmbracelet/lipgloss"

// Theme defines colors and icons for terminal rendering.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Border  lipgloss.Style
	Icons   ThemeIcons
}

// ThemeIcons defines the icon set for a theme.
type ThemeIcons struct {
	Pass string
	Fail string
	Warn string
	Info string
	Up   string
	Down string
}

// DefaultTheme returns the colored theme.
func DefaultTheme() Theme {
	return Theme{
		Name:    "default",
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Bold:    lipgloss.NewStyle().Bold(true),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Icons: ThemeIcons{
			Pass: "✓",
			Fail: "✗",
			Warn: "⚠",
			Info: "●",
			Up:   "↑",
			Down: "↓",
		},
	}
}

// OrcaTheme returns a muted palette for light terminals.
func OrcaTheme() Theme {
	t := DefaultTheme()
	t.Name = "orca"
	t.Primary = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	t.Success = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
	t.Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	t.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	t.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	t.Icons.Warn = "!"
	t.Icons.Info = "·"
	return t
}

// MonoTheme returns a monochrome theme with ASCII icons.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    "mono",
		Primary: plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		Bold:    lipgloss.NewStyle().Bold(true),
		Border:  plain,
		Icons: ThemeIcons{
			Pass: "+",
			Fail: "x",
			Warn: "!",
			Info: "*",
			Up:   "^",
			Down: "v",
		},
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "orca":
		return OrcaTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}

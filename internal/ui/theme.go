package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors used by the progress view.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Danger  string

	// Progress bar gradient and track
	BarStart string
	BarEnd   string
	BarEmpty string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Title       lipgloss.Style
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	SuccessText lipgloss.Style
	DangerText  lipgloss.Style
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Danger:  "#c94f6d", // red

		BarStart: "#719cd6", // blue
		BarEnd:   "#63cdcf", // cyan
		BarEmpty: "#39506d", // bg4
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name: "Kanagawa",

		Text:    "#DCD7BA", // fujiWhite
		Muted:   "#C8C093", // oldWhite
		Accent:  "#7E9CD8", // crystalBlue
		Success: "#98BB6C", // springGreen
		Danger:  "#E46876", // waveRed

		BarStart: "#957FB8", // oniViolet
		BarEnd:   "#7FB4CA", // springBlue
		BarEmpty: "#54546D", // sumiInk6
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Danger:  "#ef4444", // red-500

		BarStart: "#0284c7", // sky-600
		BarEnd:   "#22d3ee", // cyan-400
		BarEmpty: "#334155", // slate-700
	}
}

package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the plot and the panels around it.
type Theme struct {
	Name    string
	Line    lipgloss.Color
	Band    lipgloss.Color
	Axis    lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	// ThemeClassic follows the textbook figure: blue line, grey band.
	ThemeClassic = Theme{
		Name:    "classic",
		Line:    lipgloss.Color("#0056b3"),
		Band:    lipgloss.Color("#9e9e9e"),
		Axis:    lipgloss.Color("#555555"),
		Text:    lipgloss.Color("#f0f0f0"),
		Muted:   lipgloss.Color("#888888"),
		Accent:  lipgloss.Color("#00a8cc"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Line:    lipgloss.Color("#ff00ff"),
		Band:    lipgloss.Color("#00ffff"),
		Axis:    lipgloss.Color("#444466"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Accent:  lipgloss.Color("#ffff00"),
		Warning: lipgloss.Color("#ff8800"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Line:    lipgloss.Color("#00ff00"),
		Band:    lipgloss.Color("#007700"),
		Axis:    lipgloss.Color("#005500"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Accent:  lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Line:    lipgloss.Color("#ffffff"),
		Band:    lipgloss.Color("#888888"),
		Axis:    lipgloss.Color("#444444"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Accent:  lipgloss.Color("#0088ff"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Line:    lipgloss.Color("#ff6b6b"),
		Band:    lipgloss.Color("#feca57"),
		Axis:    lipgloss.Color("#8b6b8c"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Accent:  lipgloss.Color("#ff9ff3"),
		Warning: lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeClassic,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to classic.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

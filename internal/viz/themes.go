package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors the live view. Primary draws the chart, Secondary the
// header and Muted the panel borders.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
}

var Themes = []Theme{
	{Name: "flame", Primary: "#ff8c1a", Secondary: "#ffd23f", Muted: "#7a4a1f"},
	{Name: "soot", Primary: "#d0d0d0", Secondary: "#ffffff", Muted: "#4a4a4a"},
	{Name: "phosphor", Primary: "#00ff00", Secondary: "#88ff88", Muted: "#1f5f1f"},
	{Name: "ice", Primary: "#4fc3f7", Secondary: "#e1f5fe", Muted: "#37474f"},
}

var CurrentTheme = Themes[0]

func GetTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

func SetTheme(name string) error {
	t, ok := GetTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", name, ThemeNames())
	}
	CurrentTheme = t
	return nil
}

// NextTheme switches to the theme after the current one, wrapping around.
func NextTheme() Theme {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return CurrentTheme
		}
	}
	CurrentTheme = Themes[0]
	return CurrentTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

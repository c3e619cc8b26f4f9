package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bookclub/internal/mason"
)

// Theme is a named palette. Every color is a hex string.
type Theme struct {
	Name string

	Ink   string // values and row text
	Dim   string // labels and hints
	Faint string // locked fields, field marks

	Bar       string // header and status bar background
	Highlight string // selected row and active tab
	OnAccent  string // text drawn on a colored badge

	Accent  string // titles, identity, focus
	Good    string // accepted writes
	Bad     string // rejected writes, offline, delete
	Pending string // requests in flight

	// Badges colors a control badge by relation.
	Badges map[string]string
}

// Styles are the rendered pieces of the browser for one theme.
type Styles struct {
	Bar      lipgloss.Style
	Brand    lipgloss.Style
	Address  lipgloss.Style
	Identity lipgloss.Style
	Offline  lipgloss.Style

	TabActive lipgloss.Style
	TabIdle   lipgloss.Style

	Row         lipgloss.Style
	RowSelected lipgloss.Style
	Empty       lipgloss.Style

	Title        lipgloss.Style
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Value        lipgloss.Style
	Locked       lipgloss.Style
	FormError    lipgloss.Style
	Sending      lipgloss.Style
	Confirm      lipgloss.Style

	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
	Hints       lipgloss.Style

	HelpKey   lipgloss.Style
	HelpGroup lipgloss.Style
	Rule      lipgloss.Style
	Modal     lipgloss.Style
	Problems  lipgloss.Style

	badges  map[string]lipgloss.Style
	unknown lipgloss.Style
}

// Styles builds the styles for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	badge := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.OnAccent)).
			Background(lipgloss.Color(c)).
			Padding(0, 1)
	}
	modal := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c))
	}

	s := Styles{
		Bar: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Bar)).
			Foreground(lipgloss.Color(t.Ink)).
			Padding(0, 1),
		Brand:    fg(t.Accent).Bold(true),
		Address:  fg(t.Dim),
		Identity: fg(t.Accent),
		Offline:  fg(t.Bad).Bold(true),

		TabActive: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Highlight)).
			Foreground(lipgloss.Color(t.Ink)).
			Bold(true).
			Padding(0, 1),
		TabIdle: fg(t.Dim).Padding(0, 1),

		Row: fg(t.Ink),
		RowSelected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Highlight)).
			Foreground(lipgloss.Color(t.Ink)),
		Empty: fg(t.Dim).Italic(true),

		Title:        fg(t.Accent).Bold(true),
		Label:        fg(t.Dim).Width(labelWidth),
		LabelFocused: fg(t.Accent).Bold(true).Width(labelWidth),
		Value:        fg(t.Ink),
		Locked:       fg(t.Faint),
		FormError:    fg(t.Bad).Bold(true),
		Sending:      fg(t.Pending),
		Confirm:      fg(t.Bad).Bold(true),

		StatusOK:    fg(t.Good),
		StatusError: fg(t.Bad).Bold(true),
		Hints: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Bar)).
			Foreground(lipgloss.Color(t.Dim)).
			Padding(0, 1),

		HelpKey:   fg(t.Pending).Width(12),
		HelpGroup: fg(t.Accent).Bold(true),
		Rule:      fg(t.Faint),
		Modal:     modal(t.Accent).Padding(0, 2),
		Problems:  modal(t.Bad).Padding(0, 1),

		badges:  make(map[string]lipgloss.Style, len(t.Badges)),
		unknown: badge(t.Dim),
	}
	for rel, c := range t.Badges {
		s.badges[rel] = badge(c)
	}
	return s
}

// ControlStyle returns the badge style for a control relation. Relations
// without a color get a dim badge.
func (s Styles) ControlStyle(rel string) lipgloss.Style {
	if st, ok := s.badges[rel]; ok {
		return st
	}
	return s.unknown
}

var themeOrder = []string{"Dusk", "Paper"}

var themes = map[string]Theme{
	"Dusk":  duskTheme(),
	"Paper": paperTheme(),
}

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns the theme names in cycle order.
func ThemeNames() []string {
	return themeOrder
}

func duskTheme() Theme {
	return Theme{
		Name:      "Dusk",
		Ink:       "#d8dee9",
		Dim:       "#8a93a6",
		Faint:     "#5c6578",
		Bar:       "#1d2330",
		Highlight: "#2e3a52",
		OnAccent:  "#14181f",
		Accent:    "#88b4e7",
		Good:      "#8fc79a",
		Bad:       "#e07a7a",
		Pending:   "#e5c07b",
		Badges: map[string]string{
			mason.RelSelf:   "#7cc6c6",
			mason.RelEdit:   "#88b4e7",
			mason.RelAdd:    "#8fc79a",
			mason.RelDelete: "#e07a7a",
		},
	}
}

func paperTheme() Theme {
	return Theme{
		Name:      "Paper",
		Ink:       "#2b2b2b",
		Dim:       "#6b6b6b",
		Faint:     "#a0a0a0",
		Bar:       "#ece8df",
		Highlight: "#d7e3f4",
		OnAccent:  "#fbfaf7",
		Accent:    "#2f5d9e",
		Good:      "#2e7d4f",
		Bad:       "#b3261e",
		Pending:   "#9a6700",
		Badges: map[string]string{
			mason.RelSelf:   "#3b7f86",
			mason.RelEdit:   "#2f5d9e",
			mason.RelAdd:    "#2e7d4f",
			mason.RelDelete: "#b3261e",
		},
	}
}

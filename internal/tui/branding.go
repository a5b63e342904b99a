package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/render"
)

const AppName = "rss"

// LogoLines is the block-letter logo shown on the welcome screen and banner.
var LogoLines = []string{
	"█▀▀▄ ▄▀▀▀ ▄▀▀▀",
	"█▄▄▀ ▀▄▄  ▀▄▄ ",
	"█  █    █    █",
	"▀  ▀ ▀▀▀  ▀▀▀ ",
}

const CompactLogo = "rss ›"

// Theme holds the styles derived from the configured colours.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Unread    lipgloss.Color
	Error     lipgloss.Color

	Logo        lipgloss.Style
	Header      lipgloss.Style
	Title       lipgloss.Style
	UnreadTitle lipgloss.Style
	Read        lipgloss.Style
	Meta        lipgloss.Style
	Help        lipgloss.Style
	StatusBar   lipgloss.Style
	Separator   lipgloss.Style
	ErrorText   lipgloss.Style
	Success     lipgloss.Style
	Warn        lipgloss.Style
	Highlight   lipgloss.Style
}

const successColor = lipgloss.Color("#10B981")

// NewTheme builds a Theme from the ui.colors config section. Empty colours
// fall back to the defaults.
func NewTheme(c config.UIColors) Theme {
	def := config.DefaultColors()
	pick := func(v, fallback string) lipgloss.Color {
		if v == "" {
			return lipgloss.Color(fallback)
		}
		return lipgloss.Color(v)
	}

	t := Theme{
		Primary:   pick(c.Primary, def.Primary),
		Secondary: pick(c.Secondary, def.Secondary),
		Accent:    pick(c.Accent, def.Accent),
		Text:      pick(c.Text, def.Text),
		Muted:     pick(c.Muted, def.Muted),
		Unread:    pick(c.Unread, def.Unread),
		Error:     pick(c.Error, def.Error),
	}

	t.Logo = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Header = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Title = lipgloss.NewStyle().Foreground(t.Text)
	t.UnreadTitle = lipgloss.NewStyle().Foreground(t.Unread).Bold(true)
	t.Read = lipgloss.NewStyle().Foreground(t.Muted)
	t.Meta = lipgloss.NewStyle().Foreground(t.Muted).Faint(true)
	t.Help = lipgloss.NewStyle().Foreground(t.Muted).Italic(true)
	t.StatusBar = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)
	t.Separator = lipgloss.NewStyle().Foreground(t.Muted)
	t.ErrorText = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	t.Success = lipgloss.NewStyle().Foreground(successColor)
	t.Warn = lipgloss.NewStyle().Foreground(t.Unread)
	t.Highlight = lipgloss.NewStyle().Foreground(t.Unread).Bold(true)
	return t
}

// CardStyles adapts the theme for render.Card.
func (t Theme) CardStyles() render.CardStyles {
	return render.CardStyles{
		Title:   t.Read,
		Unread:  t.UnreadTitle,
		Meta:    t.Meta,
		Summary: t.Read,
	}
}

func (t Theme) statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return t.Success
	case StatusWarn:
		return t.Warn
	case StatusError:
		return t.ErrorText
	default:
		return t.StatusBar
	}
}

func (t Theme) WelcomeMessage(modifier string) string {
	return t.CompactBanner(fmt.Sprintf("No feeds yet. Press %sf then %sn to add one", modifier, modifier))
}

func (t Theme) CompactBanner(message string) string {
	var colored []string
	for _, line := range LogoLines {
		colored = append(colored, t.Logo.Render(line))
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, colored...),
		"",
		t.Help.Render(message),
	)
}

// ShowBanner writes the startup banner with version and API endpoint.
func ShowBanner(w io.Writer, version, apiURL string) {
	t := NewTheme(config.UIColors{})
	gradient := []lipgloss.Color{t.Primary, t.Accent, t.Secondary, t.Primary}

	lines := make([]string, 0, len(LogoLines)+3)
	for i, line := range LogoLines {
		lines = append(lines, lipgloss.NewStyle().Foreground(gradient[i%len(gradient)]).Bold(true).Render(line))
	}
	lines = append(lines, "")

	tagline := "RSS Reader"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, t.Header.Render(tagline))
	if apiURL != "" {
		lines = append(lines, t.Meta.Render(apiURL))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Secondary).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))

	fmt.Fprintln(w, box)
}

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme is the color scheme of rendered output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

var DefaultStyles = NewStyles(DefaultTheme)

func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Section is a titled list of name/value rows.
type Section struct {
	Title string
	Rows  [][2]string
}

// RenderSections renders sections one after another with their names
// aligned.
func RenderSections(s Styles, sections ...Section) string {
	width := 0
	for _, sec := range sections {
		for _, r := range sec.Rows {
			width = max(width, lipgloss.Width(r[0]))
		}
	}
	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Title.Render(sec.Title))
		b.WriteByte('\n')
		if len(sec.Rows) == 0 {
			b.WriteString("  " + s.Help.Render("(none)") + "\n")
		}
		for _, r := range sec.Rows {
			pad := strings.Repeat(" ", width-lipgloss.Width(r[0]))
			b.WriteString("  " + s.Label.Render(r[0]) + pad + "  " + r[1] + "\n")
		}
	}
	return b.String()
}

// RenderTable renders rows under a header line.
func RenderTable(s Styles, headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

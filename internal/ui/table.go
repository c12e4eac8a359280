package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers with the named theme's title style on
// the header row.
func Table(themeName string, headers []string, rows [][]string) string {
	styles := GetTheme(themeName).Styles()
	cell := lipgloss.NewStyle().Padding(0, 1)
	header := styles.Title.Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.MutedText).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String()
}

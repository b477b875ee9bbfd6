package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers. Columns from numericFrom on are right
// aligned, and the first muted rows are drawn in the muted color.
func (u *UI) Table(headers []string, rows [][]string, numericFrom, muted int) string {
	t := table.New().Headers(headers...).Rows(rows...)

	if !u.shouldStyle() {
		return t.Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return plainCell(col, numericFrom)
			}).
			String()
	}

	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleMuted).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := plainCell(col, numericFrom)
			switch {
			case row == table.HeaderRow:
				return s.Bold(true).Foreground(ColorPrimary)
			case row < muted:
				return s.Foreground(ColorMuted)
			}
			return s
		}).
		String()
}

func plainCell(col, numericFrom int) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1)
	if col >= numericFrom {
		s = s.Align(lipgloss.Right)
	}
	return s
}

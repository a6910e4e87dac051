package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muurk/luxws/internal/snapshot"
)

// LeafHeaders are the column titles of leaf tables.
var LeafHeaders = []string{"Category", "Name", "Value", "ID"}

// LeafRow returns the table cells for one leaf.
func LeafRow(l snapshot.Leaf) []string {
	return []string{l.Category, l.Name, l.Display(), l.ID}
}

// RenderLeafTable renders leaves as a bordered table. Width 0 lets the
// table size itself to its content.
func RenderLeafTable(leaves []snapshot.Leaf, width int) string {
	rows := make([][]string, 0, len(leaves))
	for _, l := range leaves {
		rows = append(rows, LeafRow(l))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 0:
				return TableCategoryStyle
			default:
				return TableCellStyle
			}
		}).
		Headers(LeafHeaders...).
		Rows(rows...)
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}

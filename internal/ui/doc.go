// Package ui provides terminal UI components for the luxws CLI.
//
// It uses Bubble Tea, Bubbles and Lipgloss for two kinds of output:
//
//   - Dashboard: a live Bubble Tea model behind "luxws watch" that shows
//     the session state and a scrollable table of values, filterable by
//     category.
//   - Printer: one-shot output for "dump" and "discover", with leaf tables
//     and success/failure result boxes.
//
// # Usage Pattern
//
//	p := tea.NewProgram(ui.NewDashboard("luxws", store, sess), tea.WithAltScreen())
//	if _, err := p.Run(); err != nil {
//	    return err
//	}
//
// Styles fall back to plain text when stdout is not a terminal.
package ui

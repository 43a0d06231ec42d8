// package ui defines [lipgloss] styles for CLI output
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	Title lipgloss.Style
	OK    lipgloss.Style
	Err   lipgloss.Style
	Help  lipgloss.Style
}

// NewPalette builds the default palette used by the CLI commands.
func NewPalette() *Palette {
	return &Palette{
		Title: NewBold("#7D56F4").MarginBottom(1),
		OK:    NewBold("#04B575"),
		Err:   NewBold("#FF0000"),
		Help:  NewEm("#626262"),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CFCF"))
	primaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	silentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// painter styles text only when writing to a terminal, so piped output and
// test buffers stay plain.
type painter struct {
	color bool
}

func painterFor(out io.Writer) painter {
	f, ok := out.(*os.File)
	if !ok {
		return painter{}
	}
	return painter{color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (p painter) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p painter) Header(text string) string  { return p.render(headerStyle, text) }
func (p painter) Primary(text string) string { return p.render(primaryStyle, text) }
func (p painter) Error(text string) string   { return p.render(errorStyle, text) }
func (p painter) Silent(text string) string  { return p.render(silentStyle, text) }

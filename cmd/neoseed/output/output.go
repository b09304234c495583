package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// Console prints loader progress as styled status lines.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console writing to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Section prints a section header
func (c *Console) Section(title string) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, primaryStyle.Render(title))
	fmt.Fprintln(c.w, mutedStyle.Render(strings.Repeat("═", len([]rune(title)))))
}

// Step prints the line shown before an operation starts
func (c *Console) Step(msg string) {
	fmt.Fprintln(c.w, infoStyle.Render("… ")+msg)
}

// Done prints a success message
func (c *Console) Done(msg string) {
	fmt.Fprintln(c.w, successStyle.Render("✓ ")+msg)
}

// Failed prints an error message
func (c *Console) Failed(msg string, err error) {
	fmt.Fprintln(c.w, errorStyle.Render("✗ ")+fmt.Sprintf("%s: %v", msg, err))
}

// Row prints one indented result row
func (c *Console) Row(format string, args ...any) {
	fmt.Fprintln(c.w, "  "+fmt.Sprintf(format, args...))
}

// Success prints a success message
func (c *Console) Success(format string, args ...any) {
	c.Done(fmt.Sprintf(format, args...))
}

// Error prints an error message
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.w, errorStyle.Render("✗ ")+fmt.Sprintf(format, args...))
}

// Muted prints a muted message
func (c *Console) Muted(format string, args ...any) {
	fmt.Fprintln(c.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

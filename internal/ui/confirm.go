package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm asks a yes/no question and reads the answer from in. Anything
// other than "y" or "yes" (case-insensitive) is a no, including EOF.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	_, _ = fmt.Fprint(out, prompt.Render(question+" [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

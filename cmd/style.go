package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	// inPromptStyle for the numbered input prompt
	inPromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	// contPromptStyle for continuation prompts
	contPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// outPromptStyle for result prompts
	outPromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// bannerStyle for the session banner
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)
)

// FormatBanner renders the session header with the selected execution mode
func FormatBanner(w io.Writer, mode string) {
	fmt.Fprintln(w, bannerStyle.Render(" goconsole "))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("mode: %s  (ctrl-c interrupts, ctrl-d exits)", mode)))
	fmt.Fprintln(w)
}

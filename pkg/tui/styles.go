package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Primary     = lipgloss.Color("#0f766e")
	Muted       = lipgloss.Color("#6b7280")
	Success     = lipgloss.Color("#16a34a")
	Destructive = lipgloss.Color("#dc2626")
	Border      = lipgloss.Color("#d1d5db")
)

// Styles groups the lipgloss styles of the form.
type Styles struct {
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Prompt  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Grid    lipgloss.Style
	Spinner lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Idle    lipgloss.Style
}

// DefaultStyles returns the standard look.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 2),

		Prompt: lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(Muted).
			Width(20),

		Value: lipgloss.NewStyle().
			Bold(true),

		Grid: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border),

		Spinner: lipgloss.NewStyle().
			Foreground(Primary),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Idle: lipgloss.NewStyle().
			Foreground(Muted),
	}
}

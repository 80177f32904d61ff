// Package tui renders the record form in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ekaya-inc/pcb-lookup/pkg/form"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// resultMsg carries a finished lookup back into Update.
type resultMsg form.Result

// Model is the bubbletea model of the record form.
type Model struct {
	form    *form.Form
	lookup  form.Lookuper
	input   textinput.Model
	spinner spinner.Model
	styles  Styles
	width   int
	pending form.Request
}

// New creates the form model. Lookups go through l.
func New(l form.Lookuper, minSerialLength int) Model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Scan or type a PCB serial number"
	ti.Prompt = "Serial Number: "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 128
	ti.Width = 40
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		form:    form.New(minSerialLength),
		lookup:  l,
		input:   ti,
		spinner: sp,
		styles:  styles,
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, l form.Lookuper, minSerialLength int) error {
	p := tea.NewProgram(New(l, minSerialLength), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}

		before := m.input.Value()
		var tiCmd tea.Cmd
		m.input, tiCmd = m.input.Update(msg)
		if m.input.Value() == before {
			return m, tiCmd
		}

		req, ok := m.form.SetSerial(m.input.Value())
		if !ok {
			return m, tiCmd
		}
		m.pending = req
		return m, tea.Batch(tiCmd, m.fetch(req), m.spinner.Tick)

	case resultMsg:
		m.form.Apply(form.Result(msg))
		return m, nil

	case spinner.TickMsg:
		if m.form.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 20 {
			m.input.Width = msg.Width - len(m.input.Prompt) - 4
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) fetch(req form.Request) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(form.Fetch(context.Background(), m.lookup, req))
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render("PCB Repair Lookup"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n\n")

	labels := models.Labels()
	rows := make([]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, m.styles.Label.Render(label)+m.styles.Value.Render(m.form.Field(label)))
	}
	sb.WriteString(m.styles.Grid.Render(strings.Join(rows, "\n")))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render("esc / ctrl+c to quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) statusLine() string {
	if m.form.Loading() {
		return fmt.Sprintf("%s Looking up %s...", m.spinner.View(), m.pending.Serial)
	}
	switch m.form.Status() {
	case form.StatusSuccess:
		return m.styles.Success.Render(m.form.Message())
	case form.StatusError:
		return m.styles.Error.Render(m.form.Message())
	default:
		return m.styles.Idle.Render(fmt.Sprintf("Enter at least %d characters", m.form.MinSerialLength()))
	}
}

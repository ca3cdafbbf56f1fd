package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const scrollbackLimit = 200

type shellModel struct {
	sess    *session
	backend string
	input   textinput.Model
	lines   []string
	history []string
	histIdx int
}

func newShellModel(sess *session, backend string) *shellModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("py> ")
	ti.Width = 72
	ti.Focus()
	return &shellModel{
		sess:    sess,
		backend: backend,
		input:   ti,
		lines:   []string{helpStyle.Render("type help for commands, ctrl+c to quit")},
	}
}

func (m *shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			m.sess.close()
			return m, tea.Quit

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.history = append(m.history, line)
			m.histIdx = len(m.history)
			m.echo(promptStyle.Render("py> ") + line)

			if line == "quit" || line == "exit" {
				m.sess.close()
				return m, tea.Quit
			}
			out, err := m.sess.exec(line)
			if err != nil {
				m.echo(errorStyle.Render(err.Error()))
			} else if out != "" {
				for _, l := range strings.Split(out, "\n") {
					m.echo(resultStyle.Render(l))
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *shellModel) echo(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > scrollbackLimit {
		m.lines = m.lines[len(m.lines)-scrollbackLimit:]
	}
}

func (m *shellModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pysh"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.backend))
	b.WriteString("\n\n")
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func runInteractive(sess *session, backend string) error {
	p := tea.NewProgram(newShellModel(sess, backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter asks the user a single question. initial is offered as the answer.
type Prompter interface {
	Ask(question, initial string) (string, error)
}

type promptModel struct {
	textInput textinput.Model
	question  string
	initial   string
	done      bool
	cancelled bool
}

func newPromptModel(question, initial string) promptModel {
	ti := textinput.New()
	ti.Placeholder = initial
	ti.SetValue(initial)
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 60

	return promptModel{
		textInput: ti,
		question:  question,
		initial:   initial,
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	questionStyle := lipgloss.NewStyle().Bold(true)
	switch {
	case m.cancelled:
		return fmt.Sprintf("%s %s\n", questionStyle.Render(m.question), lipgloss.NewStyle().Faint(true).Render("cancelled"))
	case m.done:
		answerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
		return fmt.Sprintf("%s %s\n", questionStyle.Render(m.question), answerStyle.Render(m.answer()))
	}
	return fmt.Sprintf("%s\n%s\n%s",
		questionStyle.Render(m.question),
		m.textInput.View(),
		lipgloss.NewStyle().Faint(true).Render("(press enter to confirm or esc to quit)"),
	)
}

func (m promptModel) answer() string {
	if v := strings.TrimSpace(m.textInput.Value()); v != "" {
		return v
	}
	return m.initial
}

// TeaPrompter asks questions with a bubbletea text input.
type TeaPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTeaPrompter(in io.Reader, out io.Writer) *TeaPrompter {
	return &TeaPrompter{in: in, out: out}
}

func (p *TeaPrompter) Ask(question, initial string) (string, error) {
	program := tea.NewProgram(newPromptModel(question, initial), tea.WithInput(p.in), tea.WithOutput(p.out))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("error running prompt: %w", err)
	}

	m := final.(promptModel)
	if m.cancelled || !m.done {
		return "", ErrPromptCancelled
	}
	return m.answer(), nil
}

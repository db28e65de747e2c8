package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mpd2mp4/internal/services"
)

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// TerminalPrompter renders an editable text input.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalPrompter builds a prompter that drives a bubbletea program on
// the given terminal streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// Ask runs the input until Enter. Ctrl+C and Esc cancel.
func (p *TerminalPrompter) Ask(ctx context.Context, label, placeholder string) (string, error) {
	program := tea.NewProgram(
		newInputModel(label, placeholder),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrCanceled, "prompt", "ask", "input canceled", ctxErr)
		}
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m, ok := final.(inputModel)
	if !ok {
		return "", fmt.Errorf("run prompt: unexpected model %T", final)
	}
	if m.canceled {
		return "", services.Wrap(services.ErrCanceled, "prompt", "ask", "input canceled", nil)
	}
	return m.Value(), nil
}

type inputModel struct {
	label    string
	input    textinput.Model
	done     bool
	canceled bool
}

func newInputModel(label, placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.Focus()
	return inputModel{label: strings.TrimSpace(label), input: ti}
}

// Value returns the trimmed answer.
func (m inputModel) Value() string {
	return strings.TrimSpace(m.input.Value())
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return labelStyle.Render(m.label) + " " + answerStyle.Render(m.Value()) + "\n"
	}
	if m.canceled {
		return labelStyle.Render(m.label) + "\n"
	}
	return labelStyle.Render(m.label) + "\n" +
		m.input.View() + "\n" +
		hintStyle.Render("(Enter to confirm, Esc to cancel)") + "\n"
}

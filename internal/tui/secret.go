package tui

import (
	"context"
	"io"

	"agromitra/internal/app"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SecretModel reads one masked line, such as a password.
type SecretModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

// NewSecretModel builds a masked input behind prompt.
func NewSecretModel(prompt string) SecretModel {
	in := textinput.New()
	in.Prompt = prompt
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 0
	in.Focus()
	return SecretModel{input: in}
}

// Value is the text typed so far.
func (m SecretModel) Value() string { return m.input.Value() }

// Cancelled reports whether the user left with Ctrl+C or Esc.
func (m SecretModel) Cancelled() bool { return m.cancelled }

// Init starts the cursor blink.
func (m SecretModel) Init() tea.Cmd { return textinput.Blink }

// Update finishes on Enter and cancels on Ctrl+C or Esc.
func (m SecretModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the masked input; nothing once finished.
func (m SecretModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.input.View()
}

// ReadSecret shows prompt on out and reads a masked line from the terminal
// in. It returns app.ErrCancelled when the user backs out.
func ReadSecret(ctx context.Context, in io.Reader, out io.Writer, prompt string) (string, error) {
	p := tea.NewProgram(NewSecretModel(prompt), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m := final.(SecretModel)
	if m.Cancelled() {
		return "", app.ErrCancelled
	}
	return m.Value(), nil
}

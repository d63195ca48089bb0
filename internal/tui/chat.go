package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agromitra/internal/app"
	"agromitra/internal/i18n"
	"agromitra/internal/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const chatHelp = "Enter to send. /image <path> attaches a photo, /voice dictates, /read and /stop control read-aloud, /history loads past chats, exit quits."

type replyMsg struct{ err error }

type listenMsg struct {
	text string
	err  error
}

type historyMsg struct{ err error }

// ChatModel is the Bubble Tea model of the chat screen.
type ChatModel struct {
	ctx  context.Context
	app  *app.App
	chat *app.ChatView

	input     textinput.Model
	spin      spinner.Model
	image     []byte
	imageName string
	sending   bool
	listening bool
	status    string
	width     int

	readFile func(string) ([]byte, error)
}

// NewChatModel builds the chat screen over chat.
func NewChatModel(ctx context.Context, a *app.App, chat *app.ChatView) ChatModel {
	m := ChatModel{ctx: ctx, app: a, chat: chat, readFile: os.ReadFile}

	m.input = textinput.New()
	m.input.Placeholder = m.t("askPlaceholder") + " " + m.language()
	m.input.Prompt = "> "
	m.input.CharLimit = 0
	m.input.Width = 60
	m.input.Focus()

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = titleStyle
	return m
}

// RunChat runs the chat screen until the user quits or ctx is done.
func RunChat(ctx context.Context, a *app.App, chat *app.ChatView) error {
	p := tea.NewProgram(NewChatModel(ctx, a, chat), tea.WithContext(ctx))
	_, err := p.Run()
	chat.StopSpeaking()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m ChatModel) language() string { return m.app.Store().State().SelectedLanguage }

func (m ChatModel) t(key string) string { return m.app.Store().T(key) }

// Init starts the cursor blink.
func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and the results of background calls.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.chat.StopSpeaking()
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case replyMsg:
		m.sending = false
		m.status = ""
		if msg.err != nil {
			m.status = app.Message(msg.err, m.t("errorReply"))
		}
		return m, nil

	case listenMsg:
		m.listening = false
		if msg.err != nil {
			m.status = app.Message(msg.err, "Voice input failed")
			return m, nil
		}
		m.status = ""
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.status = app.Message(msg.err, "Failed to load chat history")
		} else {
			m.status = fmt.Sprintf("Loaded %d messages", len(m.chat.Messages()))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending && !m.listening {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	lower := strings.ToLower(text)

	switch {
	case lower == "exit" || lower == "quit":
		m.chat.StopSpeaking()
		return m, tea.Quit

	case strings.HasPrefix(lower, "/image"):
		path := strings.TrimSpace(text[len("/image"):])
		m.input.SetValue("")
		if path == "" {
			m.image, m.imageName = nil, ""
			m.status = "Image removed"
			return m, nil
		}
		data, err := m.readFile(path)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if _, err := app.ImageDataURL(data); err != nil {
			m.status = app.Message(err, "")
			return m, nil
		}
		m.image, m.imageName = data, filepath.Base(path)
		m.status = "Attached " + m.imageName
		return m, nil

	case lower == "/voice":
		if m.listening {
			return m, nil
		}
		m.input.SetValue("")
		m.listening = true
		m.status = ""
		chat, ctx := m.chat, m.ctx
		return m, tea.Batch(func() tea.Msg {
			text, err := chat.Listen(ctx)
			return listenMsg{text: text, err: err}
		}, m.spin.Tick)

	case lower == "/read":
		m.input.SetValue("")
		last, ok := lastReply(m.chat.Messages())
		if !ok {
			return m, nil
		}
		if err := m.chat.ReadAloud(last); err != nil {
			m.status = app.Message(err, "Read aloud is not available")
		}
		return m, nil

	case lower == "/stop":
		m.input.SetValue("")
		m.chat.StopSpeaking()
		return m, nil

	case lower == "/history":
		m.input.SetValue("")
		chat, ctx := m.chat, m.ctx
		return m, func() tea.Msg { return historyMsg{err: chat.LoadHistory(ctx)} }
	}

	if m.sending || (text == "" && m.image == nil) {
		return m, nil
	}
	image := m.image
	m.input.SetValue("")
	m.image, m.imageName = nil, ""
	m.sending = true
	m.status = ""
	chat, ctx := m.chat, m.ctx
	return m, tea.Batch(func() tea.Msg {
		_, err := chat.Send(ctx, text, image)
		return replyMsg{err: err}
	}, m.spin.Tick)
}

func lastReply(msgs []models.ChatMessage) (models.ChatMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser {
			return msgs[i], true
		}
	}
	return models.ChatMessage{}, false
}

// View renders the transcript, the progress line and the compose box.
func (m ChatModel) View() string {
	var b strings.Builder
	b.WriteString(Title(m.t("appName")+" · "+m.t("aiAssistant")) + "\n")
	b.WriteString(Faint(m.t("chatDescription")+" "+m.language()) + "\n\n")

	msgs := m.chat.Messages()
	if len(msgs) == 0 {
		b.WriteString(m.t("startConversation") + "\n")
		b.WriteString(Faint(m.t("tryAsking")) + "\n")
		for _, q := range i18n.Examples(m.language()) {
			b.WriteString("  • " + q + "\n")
		}
		b.WriteString("\n")
	}

	speaking := m.chat.SpeakingMessageID()
	for _, msg := range msgs {
		if msg.IsUser {
			b.WriteString(userStyle.Render("You:") + " " + msg.Message + "\n\n")
			continue
		}
		line := Badge(ClassificationLabel(msg.Classification), Tint(msg.Classification)) + " " + msg.Response
		if msg.ID != "" && msg.ID == speaking {
			line += " " + Faint("("+m.t("readingAloud")+")")
		}
		b.WriteString(line + "\n\n")
	}

	switch {
	case m.sending:
		b.WriteString(m.spin.View() + " " + m.t("thinking") + "\n\n")
	case m.listening:
		b.WriteString(m.spin.View() + " " + m.t("listening") + "\n\n")
	}

	if m.imageName != "" {
		b.WriteString(Faint("📎 "+m.imageName) + "\n")
	}
	if m.status != "" {
		b.WriteString(Error(m.status) + "\n")
	}
	b.WriteString(m.input.View() + "\n")
	b.WriteString(Faint(chatHelp))
	return b.String()
}

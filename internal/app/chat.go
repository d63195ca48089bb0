package app

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
	"sync"

	"agromitra/internal/models"
	"agromitra/internal/speech"
	"agromitra/internal/store"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed chat texts.
const (
	ChatFallbackReply   = "Sorry, I encountered an error. Please try again."
	ImageOnlyText       = "Uploaded plant image for disease check"
	ClassificationError = "error"
)

var speechLocales = map[string]string{
	"english":   "en-US",
	"hindi":     "hi-IN",
	"telugu":    "te-IN",
	"kannada":   "kn-IN",
	"tamil":     "ta-IN",
	"malayalam": "ml-IN",
}

// SpeechLocale is the synthesis locale for a language code; en-US when unknown.
func SpeechLocale(language string) string {
	if locale, ok := speechLocales[language]; ok {
		return locale
	}
	return "en-US"
}

// RecognitionLocale is the locale voice input listens in.
func RecognitionLocale(language string) string {
	if language == "hindi" {
		return "hi-IN"
	}
	return "en-US"
}

var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile("`{1,3}([^`]*)`{1,3}"), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s*`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`\s*\n+\s*`), " "},
}

// StripMarkdown removes emphasis, code, header and link markup so the text
// can be read aloud.
func StripMarkdown(text string) string {
	for _, rule := range markdownRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return strings.TrimSpace(text)
}

// ImageDataURL encodes an image as a base64 data URL with its sniffed type.
func ImageDataURL(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ChatView drives the assistant conversation. The transcript lives in the
// store; the view tracks the in-flight send, voice input and read-aloud.
type ChatView struct {
	app   *App
	synth speech.Synthesizer
	rec   speech.Recognizer

	mu         sync.Mutex
	sending    bool
	listening  bool
	input      string
	speakingID string
	speakSeq   int
}

// NewChat returns the chat controller. Nil capabilities are replaced by
// speech.Nop.
func (app *App) NewChat(synth speech.Synthesizer, rec speech.Recognizer) *ChatView {
	if synth == nil {
		synth = speech.Nop{}
	}
	if rec == nil {
		rec = speech.Nop{}
	}
	return &ChatView{app: app, synth: synth, rec: rec}
}

// Messages returns the transcript.
func (v *ChatView) Messages() []models.ChatMessage {
	return v.app.store.State().ChatMessages
}

// Sending reports whether a message is in flight.
func (v *ChatView) Sending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sending
}

// Send posts text, or image with optional text, to the assistant. The user
// entry is appended before the request and exactly one assistant entry after
// it; on failure that entry is the fixed fallback reply and the error is
// returned alongside it. Blank text without an image does nothing.
func (v *ChatView) Send(ctx context.Context, text string, image []byte) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(image) == 0 {
		return nil, nil
	}
	if err := v.app.requireAuth(); err != nil {
		return nil, err
	}

	var dataURL string
	if len(image) > 0 {
		var err error
		if dataURL, err = ImageDataURL(image); err != nil {
			return nil, err
		}
	}

	v.mu.Lock()
	if v.sending {
		v.mu.Unlock()
		return nil, ErrBusy
	}
	v.sending = true
	v.input = ""
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.sending = false
		v.mu.Unlock()
	}()

	lang := v.app.language()
	shown := text
	if shown == "" {
		shown = ImageOnlyText
	}
	v.app.store.AddChatMessage(models.ChatMessage{
		ID:        uuid.NewString(),
		Message:   shown,
		Language:  lang,
		Timestamp: v.app.now(),
		IsUser:    true,
	})

	var (
		reply *models.ChatReply
		err   error
	)
	if dataURL != "" {
		reply, err = v.app.farmer.Chat.SendDiseaseImage(ctx, dataURL, text, lang)
	} else {
		reply, err = v.app.farmer.Chat.Send(ctx, text, lang)
	}

	answer := models.ChatMessage{
		ID:        uuid.NewString(),
		Language:  lang,
		Timestamp: v.app.now(),
	}
	if err != nil {
		v.app.log.Warn("chat request failed", zap.Error(err))
		answer.Response = ChatFallbackReply
		answer.Classification = ClassificationError
	} else {
		answer.Response = reply.Message
		answer.Classification = reply.Classification
		answer.Model = reply.Model
	}
	v.app.store.AddChatMessage(answer)
	return &answer, err
}

// LoadHistory replaces the transcript with the stored conversation.
func (v *ChatView) LoadHistory(ctx context.Context) error {
	if err := v.app.requireAuth(); err != nil {
		return err
	}
	entries, err := v.app.farmer.Chat.History(ctx)
	if err != nil {
		return failure(err, "Failed to load chat history")
	}

	msgs := make([]models.ChatMessage, 0, 2*len(entries))
	for _, e := range entries {
		msgs = append(msgs,
			models.ChatMessage{
				ID:        e.Key() + "-q",
				Message:   e.Message,
				Language:  e.Language,
				Timestamp: e.Timestamp,
				IsUser:    true,
			},
			models.ChatMessage{
				ID:             e.Key(),
				Response:       e.Response,
				Classification: e.Classification,
				Language:       e.Language,
				Timestamp:      e.Timestamp,
			})
	}
	v.app.store.Dispatch(store.SetChatMessages{Messages: msgs})
	return nil
}

// Input is the compose text, as last set by voice input.
func (v *ChatView) Input() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

// Listening reports whether voice input is active.
func (v *ChatView) Listening() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listening
}

// Listen captures one utterance and makes it the compose text. The listening
// flag is cleared when recognition ends, successfully or not.
func (v *ChatView) Listen(ctx context.Context) (string, error) {
	v.mu.Lock()
	if v.listening {
		v.mu.Unlock()
		return "", ErrBusy
	}
	v.listening = true
	v.mu.Unlock()

	text, err := v.rec.Recognize(ctx, RecognitionLocale(v.app.language()))

	v.mu.Lock()
	defer v.mu.Unlock()
	v.listening = false
	if err != nil {
		return "", err
	}
	v.input = text
	return text, nil
}

// SpeakingMessageID is the message being read aloud, or "".
func (v *ChatView) SpeakingMessageID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.speakingID
}

// ReadAloud speaks msg in the current language. Any utterance in progress is
// cancelled first.
func (v *ChatView) ReadAloud(msg models.ChatMessage) error {
	text := msg.Response
	if msg.IsUser || text == "" {
		text = msg.Message
	}

	v.synth.Cancel()
	v.mu.Lock()
	v.speakSeq++
	seq := v.speakSeq
	v.speakingID = msg.ID
	v.mu.Unlock()

	err := v.synth.Speak(speech.Utterance{
		Text:   StripMarkdown(text),
		Locale: SpeechLocale(v.app.language()),
		Rate:   speech.DefaultRate,
	}, func(error) { v.finishSpeaking(seq) })
	if err != nil {
		v.finishSpeaking(seq)
	}
	return err
}

// StopSpeaking cancels the current utterance.
func (v *ChatView) StopSpeaking() {
	v.synth.Cancel()
	v.mu.Lock()
	v.speakSeq++
	v.speakingID = ""
	v.mu.Unlock()
}

func (v *ChatView) finishSpeaking(seq int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.speakSeq == seq {
		v.speakingID = ""
	}
}

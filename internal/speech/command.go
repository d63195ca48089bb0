package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"agromitra/internal/pkg/logger"

	"go.uber.org/zap"
)

// baseWordsPerMinute is espeak's default speed.
const baseWordsPerMinute = 175

// ArgsFunc builds the command line arguments for an utterance.
type ArgsFunc func(u Utterance) []string

// Command is a Synthesizer backed by an external text-to-speech program.
type Command struct {
	path string
	args ArgsFunc
	log  *logger.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

// NewCommand returns a synthesizer that runs path with args(u) per utterance.
func NewCommand(path string, args ArgsFunc, l *logger.Logger) *Command {
	if l == nil {
		l = logger.Nop()
	}
	return &Command{path: path, args: args, log: l}
}

// EspeakArgs maps an utterance onto espeak / espeak-ng flags. The text follows
// "--" so a leading dash is spoken, not parsed as a flag.
func EspeakArgs(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	return []string{
		"-v", espeakVoice(u.Locale),
		"-s", strconv.Itoa(int(baseWordsPerMinute * rate)),
		"--", u.Text,
	}
}

// SayArgs maps an utterance onto the macOS say command.
func SayArgs(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	return []string{"-r", strconv.Itoa(int(baseWordsPerMinute * rate)), "--", u.Text}
}

func espeakVoice(locale string) string {
	lang, region, _ := strings.Cut(strings.ToLower(locale), "-")
	switch {
	case lang == "":
		return "en-us"
	case lang == "en" && region != "":
		return "en-" + region
	default:
		return lang
	}
}

// Detect returns a synthesizer for the first text-to-speech program found on
// PATH (espeak-ng, espeak, say), or Nop when there is none.
func Detect(l *logger.Logger) Synthesizer {
	candidates := []struct {
		name string
		args ArgsFunc
	}{
		{"espeak-ng", EspeakArgs},
		{"espeak", EspeakArgs},
		{"say", SayArgs},
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c.name); err == nil {
			return NewCommand(path, c.args, l)
		}
	}
	return Nop{}
}

// Speak cancels any utterance in progress and starts u.
func (c *Command) Speak(u Utterance, onEnd func(error)) error {
	c.Cancel()

	cmd := exec.Command(c.path, c.args(u)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("speech: start %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.current = cmd
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		if c.current == cmd {
			c.current = nil
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Debug("utterance ended", zap.Error(err))
		}
		if onEnd != nil {
			onEnd(err)
		}
	}()
	return nil
}

// Cancel kills the running utterance.
func (c *Command) Cancel() {
	c.mu.Lock()
	cmd := c.current
	c.current = nil
	c.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// CommandRecognizer runs an external speech-to-text program and returns its
// trimmed standard output as the transcript. The locale is passed as the last
// argument.
type CommandRecognizer struct {
	Path string
	Args []string
}

// Recognize records and transcribes one phrase.
func (r CommandRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	if r.Path == "" {
		return "", ErrUnavailable
	}
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, append(append([]string(nil), r.Args...), locale)...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("speech: recognize: %w", err)
		}
		return "", fmt.Errorf("speech: recognize: %w: %s", err, msg)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("speech: nothing was recognized")
	}
	return text, nil
}

package speech

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEspeakArgs(t *testing.T) {
	testCases := []struct {
		name     string
		u        Utterance
		expected []string
	}{
		{name: "English", u: Utterance{Text: "hello", Locale: "en-US", Rate: 0.9}, expected: []string{"-v", "en-us", "-s", "157", "--", "hello"}},
		{name: "Hindi", u: Utterance{Text: "namaste", Locale: "hi-IN", Rate: 1}, expected: []string{"-v", "hi", "-s", "175", "--", "namaste"}},
		{name: "Defaults", u: Utterance{Text: "x"}, expected: []string{"-v", "en-us", "-s", "175", "--", "x"}},
		{name: "Leading dash", u: Utterance{Text: "- Apply neem oil", Locale: "en-IN", Rate: 1}, expected: []string{"-v", "en-in", "-s", "175", "--", "- Apply neem oil"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EspeakArgs(tc.u))
		})
	}
}

func TestSayArgs(t *testing.T) {
	testCases := []struct {
		name     string
		u        Utterance
		expected []string
	}{
		{name: "Plain", u: Utterance{Text: "hello", Rate: 1}, expected: []string{"-r", "175", "--", "hello"}},
		{name: "Leading dash", u: Utterance{Text: "-v Alex"}, expected: []string{"-r", "175", "--", "-v Alex"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SayArgs(tc.u))
		})
	}
}

func TestNop(t *testing.T) {
	var n Nop
	assert.ErrorIs(t, n.Speak(Utterance{Text: "x"}, nil), ErrUnavailable)
	_, err := n.Recognize(context.Background(), "en-US")
	assert.ErrorIs(t, err, ErrUnavailable)
	n.Cancel()
}

func TestCommand_CancelStopsUtterance(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	c := NewCommand(sleep, func(Utterance) []string { return []string{"10"} }, nil)

	ended := make(chan error, 1)
	require.NoError(t, c.Speak(Utterance{Text: "long"}, func(err error) { ended <- err }))
	c.Cancel()

	select {
	case err := <-ended:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("utterance was not cancelled")
	}
}

func TestCommandRecognizer(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	r := CommandRecognizer{Path: echo, Args: []string{"how to grow rice"}}
	text, err := r.Recognize(context.Background(), "en-US")
	require.NoError(t, err)
	assert.Equal(t, "how to grow rice en-US", text)

	_, err = CommandRecognizer{}.Recognize(context.Background(), "en-US")
	assert.ErrorIs(t, err, ErrUnavailable)
}

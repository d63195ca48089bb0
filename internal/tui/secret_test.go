package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeSecret(m SecretModel, text string) SecretModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(SecretModel)
}

func TestSecretModel_MasksInput(t *testing.T) {
	m := typeSecret(NewSecretModel("Password: "), "abc")

	view := m.View()
	assert.Contains(t, view, "Password: ")
	assert.Contains(t, view, "•")
	assert.NotContains(t, view, "abc")
	assert.Equal(t, "abc", m.Value())
}

func TestSecretModel_Finish(t *testing.T) {
	testCases := []struct {
		name      string
		key       tea.KeyType
		cancelled bool
	}{
		{name: "Enter", key: tea.KeyEnter, cancelled: false},
		{name: "Esc", key: tea.KeyEsc, cancelled: true},
		{name: "Ctrl+C", key: tea.KeyCtrlC, cancelled: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := typeSecret(NewSecretModel("Password: "), "secret123")

			next, cmd := m.Update(tea.KeyMsg{Type: tc.key})
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())

			m = next.(SecretModel)
			assert.Equal(t, tc.cancelled, m.Cancelled())
			assert.Equal(t, "secret123", m.Value())
			assert.Empty(t, m.View())
		})
	}
}

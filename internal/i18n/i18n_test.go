package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestT(t *testing.T) {
	testCases := []struct {
		name     string
		lang     string
		key      string
		expected string
	}{
		{name: "English key", lang: "english", key: "sendButton", expected: "Send"},
		{name: "Hindi key", lang: "hindi", key: "sendButton", expected: "भेजें"},
		{name: "Unknown language falls back to English", lang: "klingon", key: "marketPrices", expected: "Market Prices"},
		{name: "Empty language falls back to English", lang: "", key: "logout", expected: "Logout"},
		{name: "Key missing in language falls back to English", lang: "tamil", key: "dashboard", expected: "Dashboard"},
		{name: "Unknown key returns key", lang: "hindi", key: "noSuchKey", expected: "noSuchKey"},
		{name: "Unknown key in unknown language returns key", lang: "klingon", key: "noSuchKey", expected: "noSuchKey"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, T(tc.lang, tc.key))
		})
	}
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"english", "hindi", "kannada", "malayalam", "tamil", "telugu"}, Languages())
	assert.True(t, Supported("telugu"))
	assert.False(t, Supported("french"))
}

func TestExamples(t *testing.T) {
	assert.Contains(t, Examples("english"), "How to control pests in rice?")
	assert.Len(t, Examples("kannada"), 3)
	assert.Equal(t, Examples("english"), Examples("unknown"))
}

func TestLoad(t *testing.T) {
	_, err := Load([]byte("hindi:\n  a: b\n"))
	require.Error(t, err)

	tbl, err := Load([]byte("english:\n  a: \"A\"\nfrench:\n  a: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "A", tbl.T("french", "a"))
}

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/pkg/logger"
	"agromitra/internal/storage/mocks"
)

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	f, err := NewFile(path, logger.Nop())
	require.NoError(t, err)

	_, ok := f.Get(KeyAuthToken)
	assert.False(t, ok)

	require.NoError(t, f.Set(KeyAuthToken, "tok"))
	require.NoError(t, f.Set(KeyLanguage, "hindi"))

	reopened, err := NewFile(path, logger.Nop())
	require.NoError(t, err)
	v, ok := reopened.Get(KeyAuthToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, reopened.Remove(KeyAuthToken))
	require.NoError(t, reopened.Remove("never-set"))

	again, err := NewFile(path, logger.Nop())
	require.NoError(t, err)
	_, ok = again.Get(KeyAuthToken)
	assert.False(t, ok)
	lang, _ := again.Get(KeyLanguage)
	assert.Equal(t, "hindi", lang)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_CorruptDocumentStartsEmpty(t *testing.T) {
	testCases := []struct {
		name string
		log  *logger.Logger
	}{
		{name: "With logger", log: logger.Nop()},
		{name: "Nil logger", log: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

			f, err := NewFile(path, tc.log)
			require.NoError(t, err)
			_, ok := f.Get(KeyUser)
			assert.False(t, ok)

			require.NoError(t, f.Set(KeyUser, "{}"))
			v, ok := f.Get(KeyUser)
			assert.True(t, ok)
			assert.Equal(t, "{}", v)
		})
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(KeyUser, "{}"))
	v, ok := m.Get(KeyUser)
	assert.True(t, ok)
	assert.Equal(t, "{}", v)
	require.NoError(t, m.Remove(KeyUser))
	_, ok = m.Get(KeyUser)
	assert.False(t, ok)
}

func TestRemoveAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	failure := errors.New("disk full")

	gomock.InOrder(
		mockStorage.EXPECT().Remove(KeyAuthToken).Return(failure),
		mockStorage.EXPECT().Remove(KeyUser).Return(nil),
	)

	err := RemoveAll(mockStorage, KeyAuthToken, KeyUser)
	assert.ErrorIs(t, err, failure)
}

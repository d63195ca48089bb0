// Package storage provides the key-value store that persists session flags
// between runs: the farmer session, the admin session and the selected UI
// language. It defines the Storage interface along with a file-backed
// implementation for the CLI and an in-memory one for tests and ephemeral use.
package storage

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

// Keys under which the client persists its state.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
	KeyAdmin     = "adminToken"
	KeyAdminUser = "adminUser"
	KeyLanguage  = "selectedLanguage"
)

// Storage defines the methods required for persisting client flags.
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool)
	// Set stores value under key.
	Set(key, value string) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(key string) error
}

// RemoveAll deletes every key, returning the first error encountered.
func RemoveAll(s Storage, keys ...string) error {
	var first error
	for _, k := range keys {
		if err := s.Remove(k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

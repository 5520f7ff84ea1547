package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

// RefPrefix marks a configuration value stored in the system keyring
const RefPrefix = "keyring:"

// lookup is replaced in tests
var lookup = func(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("failed to read keyring entry %s: %w", key, err)
	}
	return string(item.Data), nil
}

// open uses the platform keyring where one exists
func open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: "mailnav",
		FileDir:     "~/.config/mailnav/keyring",
		// Only reached on hosts without a native keyring. Stdin carries
		// the MCP stream, so the password cannot be prompted for.
		FilePasswordFunc: keyring.FixedStringPrompt(os.Getenv("MAILNAV_KEYRING_PASSWORD")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

// Set stores secret under key
func Set(key, secret string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: key, Data: []byte(secret), Label: "mailnav " + key}); err != nil {
		return fmt.Errorf("failed to write keyring entry %s: %w", key, err)
	}
	return nil
}

// Resolve returns value unchanged unless it is a "keyring:<key>"
// reference, in which case the stored secret is returned.
func Resolve(value string) (string, error) {
	key, ok := strings.CutPrefix(value, RefPrefix)
	if !ok {
		return value, nil
	}
	if key == "" {
		return "", fmt.Errorf("empty keyring reference")
	}
	return lookup(key)
}

package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	envToken       = "TRUSTINDEX_INGEST_TOKEN"
	tokenFileName  = "collector_token"
	keyringService = "trustindex"
	keyringUser    = "collector_token"
)

// ErrNoToken is returned when no collector token can be resolved.
var ErrNoToken = errors.New("no collector token found, run the auth command first")

// SaveToken stores the collector token in the OS keychain, falling back
// to a file under homeDir when no keychain is available.
func SaveToken(homeDir, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(homeDir, token)
	}

	// Clean up legacy file if it exists
	os.Remove(path.Join(homeDir, tokenFileName))
	return nil
}

// GetToken resolves the collector token: environment first, then the OS
// keychain, then the token file. A file hit is migrated to the keychain.
func GetToken(homeDir string) (string, error) {
	if token := strings.TrimSpace(os.Getenv(envToken)); token != "" {
		return token, nil
	}

	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = getTokenFile(homeDir)
	if err != nil {
		return "", ErrNoToken
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(path.Join(homeDir, tokenFileName))
	}
	return token, nil
}

// DeleteToken removes the stored token from both the keychain and the
// file fallback.
func DeleteToken(homeDir string) error {
	kerr := keyring.Delete(keyringService, keyringUser)
	ferr := os.Remove(path.Join(homeDir, tokenFileName))

	if kerr != nil && ferr != nil {
		return ErrNoToken
	}
	return nil
}

func saveTokenFile(homeDir, token string) error {
	tokenPath := path.Join(homeDir, tokenFileName)
	if err := os.WriteFile(tokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("writing token file %s: %w", tokenPath, err)
	}
	return nil
}

func getTokenFile(homeDir string) (string, error) {
	tokenPath := path.Join(homeDir, tokenFileName)
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", tokenPath, err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", tokenPath)
	}
	return token, nil
}

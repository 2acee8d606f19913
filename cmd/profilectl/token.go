package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNotLoggedIn = errors.New("not logged in; run profilectl login first")

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".profilectl-token"
	}
	return filepath.Join(dir, "profilectl", "token")
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// loadToken prefers PROFILECTL_TOKEN over the token file.
func loadToken(path string) (string, error) {
	if token := strings.TrimSpace(os.Getenv("PROFILECTL_TOKEN")); token != "" {
		return token, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

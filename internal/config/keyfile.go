package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Token returns the API token, reading it from the key file when it was not set directly.
func (cfg *Config) Token() (string, error) {
	if cfg.APIToken != "" {
		return cfg.APIToken, nil
	}
	if err := VerifyPermissions(cfg.KeyFile); err != nil {
		return "", err
	}
	return ReadKey(cfg.KeyFile)
}

// ReadKey returns the first line of the file at path.
func ReadKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	key = strings.TrimSpace(string(keyb))
	if key == "" {
		return "", fmt.Errorf("key file \"%s\" is empty", path)
	}
	return key, nil
}

// WriteKey creates a new key file at path with mode 0600. An existing file is never overwritten.
func WriteKey(path, key string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	if _, err := fmt.Fprintln(f, key); err != nil {
		f.Close()
		return fmt.Errorf("unable to write \"%s\": %w", path, err)
	}
	return f.Close()
}

func VerifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": %w", path, PermissionError(perms))
	}
	return nil
}

type PermissionError fs.FileMode

func (pe PermissionError) Error() string {
	return fmt.Sprintf("expected file permissions \"-rw-------\"; found \"%s\"", fs.FileMode(pe))
}

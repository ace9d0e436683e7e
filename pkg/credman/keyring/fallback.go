package keyring

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	secretFileName = "rpc.secret"
	secretFileMode = 0600
)

// FileKeyStore keeps the secret as a hex string in a 0600 file.
type FileKeyStore struct {
	configDir string
}

var (
	fileRandRead = rand.Read
	fileReadFile = os.ReadFile
	fileRemove   = os.Remove
	fileRename   = os.Rename
	fileMkdirAll = os.MkdirAll
	fileTempFile = os.CreateTemp
)

func NewFileKeyStore(configDir string) *FileKeyStore {
	return &FileKeyStore{configDir: configDir}
}

// Path is the location of the secret file.
func (f *FileKeyStore) Path() string {
	return filepath.Join(f.configDir, secretFileName)
}

// SetSecret generates a new secret and writes it atomically using a temporary
// file and rename.
func (f *FileKeyStore) SetSecret() (string, error) {
	if err := fileMkdirAll(f.configDir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	secret, err := newSecret(fileRandRead)
	if err != nil {
		return "", err
	}

	tmpFile, err := fileTempFile(f.configDir, ".rpc.secret.tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.WriteString(secret); err != nil {
		tmpFile.Close()
		fileRemove(tmpPath)
		return "", fmt.Errorf("write secret: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		fileRemove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, secretFileMode); err != nil {
		fileRemove(tmpPath)
		return "", fmt.Errorf("set permissions: %w", err)
	}
	if err := fileRename(tmpPath, f.Path()); err != nil {
		fileRemove(tmpPath)
		return "", fmt.Errorf("rename secret file: %w", err)
	}
	return secret, nil
}

// Secret reads the stored secret. ErrNotFound means the file does not exist.
func (f *FileKeyStore) Secret() (string, error) {
	data, err := fileReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	secret := strings.TrimSpace(string(data))
	if err := validSecret(secret); err != nil {
		return "", err
	}
	return secret, nil
}

func (f *FileKeyStore) DeleteSecret() error {
	err := fileRemove(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

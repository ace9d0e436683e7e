// Package keyring stores the daemon's RPC secret in the operating system's
// native keyring, falling back to a 0600 file in the config directory when
// no keyring service is available.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SecretBytes is the amount of randomness in a generated secret.
const SecretBytes = 32

// Keyring keeps the secret under Service/User in the OS keyring.
type Keyring struct {
	Service string
	User    string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		Service: "subsleuth",
		User:    "rpc-secret",
	}
}

// newSecret returns SecretBytes of randomness hex-encoded.
func newSecret(read func([]byte) (int, error)) (string, error) {
	b := make([]byte, SecretBytes)
	if _, err := read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// validSecret checks the hex encoding and length of a stored secret.
func validSecret(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid secret format: %w", err)
	}
	if len(b) != SecretBytes {
		return fmt.Errorf("invalid secret length: expected %d, got %d", SecretBytes, len(b))
	}
	return nil
}

// SetSecret generates a new secret and stores it, replacing any previous one.
func (k *Keyring) SetSecret() (string, error) {
	secret, err := newSecret(randRead)
	if err != nil {
		return "", err
	}
	if err := keyringSet(k.Service, k.User, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// Secret returns the stored secret. ErrNotFound means nothing was stored yet.
func (k *Keyring) Secret() (string, error) {
	secret, err := keyringGet(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if err := validSecret(secret); err != nil {
		return "", err
	}
	return secret, nil
}

func (k *Keyring) DeleteSecret() error {
	err := keyringDelete(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

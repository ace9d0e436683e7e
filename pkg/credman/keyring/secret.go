package keyring

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no secret has been stored yet.
var ErrNotFound = errors.New("secret not found")

// SecretStore is implemented by Keyring and FileKeyStore.
type SecretStore interface {
	Secret() (string, error)
	SetSecret() (string, error)
	DeleteSecret() error
}

// Resolver picks the OS keyring when it works and the file store otherwise.
type Resolver struct {
	Primary  SecretStore
	Fallback SecretStore
}

// NewResolver returns a Resolver over the OS keyring and a file in configDir.
func NewResolver(configDir string) *Resolver {
	return &Resolver{
		Primary:  NewKeyring(),
		Fallback: NewFileKeyStore(configDir),
	}
}

// Secret returns the existing secret, creating one on first use. A secret
// already present in the fallback file wins over creating a new keyring
// entry so that clients keep working after the keyring becomes available.
func (r *Resolver) Secret() (string, error) {
	secret, err := r.Primary.Secret()
	if err == nil {
		return secret, nil
	}
	primaryErr := err
	if secret, err := r.Fallback.Secret(); err == nil {
		return secret, nil
	}
	if errors.Is(primaryErr, ErrNotFound) {
		if secret, err := r.Primary.SetSecret(); err == nil {
			return secret, nil
		}
	}
	secret, err = r.Fallback.SetSecret()
	if err != nil {
		return "", fmt.Errorf("store secret: %w", errors.Join(primaryErr, err))
	}
	return secret, nil
}

// Rotate replaces the secret wherever it currently lives.
func (r *Resolver) Rotate() (string, error) {
	if _, err := r.Fallback.Secret(); err == nil {
		return r.Fallback.SetSecret()
	}
	secret, err := r.Primary.SetSecret()
	if err == nil {
		return secret, nil
	}
	return r.Fallback.SetSecret()
}

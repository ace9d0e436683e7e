package keyring

import (
	"errors"
	"testing"
)

// memStore is a SecretStore held in memory.
type memStore struct {
	secret  string
	getErr  error
	setErr  error
	setHits int
}

func (m *memStore) Secret() (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	if m.secret == "" {
		return "", ErrNotFound
	}
	return m.secret, nil
}

func (m *memStore) SetSecret() (string, error) {
	m.setHits++
	if m.setErr != nil {
		return "", m.setErr
	}
	m.secret = "generated"
	return m.secret, nil
}

func (m *memStore) DeleteSecret() error {
	m.secret = ""
	return nil
}

func TestResolverPrefersPrimary(t *testing.T) {
	r := &Resolver{Primary: &memStore{secret: "p"}, Fallback: &memStore{secret: "f"}}
	if got, _ := r.Secret(); got != "p" {
		t.Fatalf("expected primary secret, got %q", got)
	}
}

func TestResolverKeepsExistingFallback(t *testing.T) {
	primary := &memStore{}
	r := &Resolver{Primary: primary, Fallback: &memStore{secret: "f"}}
	if got, _ := r.Secret(); got != "f" {
		t.Fatalf("expected fallback secret, got %q", got)
	}
	if primary.setHits != 0 {
		t.Fatal("must not mint a new secret while the fallback has one")
	}
}

func TestResolverCreatesInPrimary(t *testing.T) {
	primary, fallback := &memStore{}, &memStore{}
	r := &Resolver{Primary: primary, Fallback: fallback}
	if _, err := r.Secret(); err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if primary.secret == "" || fallback.setHits != 0 {
		t.Fatal("expected the secret to be created in the keyring")
	}
}

func TestResolverFallsBackWhenKeyringBroken(t *testing.T) {
	primary := &memStore{getErr: errors.New("dbus unavailable")}
	fallback := &memStore{}
	r := &Resolver{Primary: primary, Fallback: fallback}
	got, err := r.Secret()
	if err != nil || got == "" {
		t.Fatalf("Secret: %q %v", got, err)
	}
	if primary.setHits != 0 || fallback.secret == "" {
		t.Fatal("expected the secret to be created in the file store")
	}
}

func TestResolverBothFail(t *testing.T) {
	r := &Resolver{
		Primary:  &memStore{getErr: errors.New("no keyring")},
		Fallback: &memStore{setErr: errors.New("read-only fs")},
	}
	if _, err := r.Secret(); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolverRotate(t *testing.T) {
	fallback := &memStore{secret: "old"}
	r := &Resolver{Primary: &memStore{}, Fallback: fallback}
	got, err := r.Rotate()
	if err != nil || got != "generated" || fallback.secret != "generated" {
		t.Fatalf("expected rotation in the fallback store, got %q %v", got, err)
	}
}

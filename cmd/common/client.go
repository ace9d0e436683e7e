package common

import (
	"fmt"
	"os"

	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/credman/keyring"
	"github.com/subsleuth/subsleuth/pkg/subcli"
)

// EnsureDaemon starts a daemon when none answers. Replaced in tests.
var EnsureDaemon = subcli.EnsureDaemon

// ResolveSecret returns the RPC secret from the environment, or from the
// keyring, creating it on first use.
func ResolveSecret(cfg config.Config) (string, error) {
	if cfg.Secret != "" {
		return cfg.Secret, nil
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return keyring.NewResolver(cfg.ConfigDir).Secret()
}

// NewDaemonClient loads the config, starts a daemon when none answers and
// returns a connected client. A daemon running another version than
// version is reported on stderr.
func NewDaemonClient(version string) (*subcli.Client, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}
	secret, err := ResolveSecret(cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("rpc secret: %w", err)
	}
	addr := cfg.ClientAddr()
	if err := EnsureDaemon(addr); err != nil {
		return nil, cfg, err
	}
	client, err := subcli.NewClient(addr, secret)
	if err != nil {
		return nil, cfg, err
	}
	client.CheckVersionMismatch(os.Stderr, version)
	return client, cfg, nil
}

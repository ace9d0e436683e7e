// Package store persists the subscription list and the notification config
// in a small key-value store. The two keys match the browser extension's
// storage. Subscriptions share its JSON layout; the config is read from
// either leadDays or the extension's notifyBeforeDays and written back as
// leadDays.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// ErrClosed is returned by KV backends after Close.
var ErrClosed = errors.New("store: closed")

// KV is a byte-oriented key-value backend.
type KV interface {
	// Get returns the value stored under key. found is false when the key
	// was never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config is the persisted notification configuration.
type Config struct {
	LeadDays int `json:"leadDays"`
	// NotifyBeforeDays is the extension's key for LeadDays. It is only
	// read; WithDefaults folds it into LeadDays.
	NotifyBeforeDays int `json:"notifyBeforeDays,omitempty"`
}

// WithDefaults adopts NotifyBeforeDays when LeadDays is unset and replaces
// a lead time outside [common.MinLeadDays, common.MaxLeadDays] with
// common.DefaultLeadDays.
func (c Config) WithDefaults() Config {
	if c.LeadDays == 0 {
		c.LeadDays = c.NotifyBeforeDays
	}
	c.NotifyBeforeDays = 0
	if c.LeadDays < common.MinLeadDays || c.LeadDays > common.MaxLeadDays {
		c.LeadDays = common.DefaultLeadDays
	}
	return c
}

// Store is the typed view over the subscription and config keys.
type Store interface {
	Subscriptions(ctx context.Context) ([]sublib.Subscription, error)
	SaveSubscriptions(ctx context.Context, subs []sublib.Subscription) error
	// Config returns the stored config, or the default when absent.
	Config(ctx context.Context) (Config, error)
	SaveConfig(ctx context.Context, cfg Config) error
	Close() error
}

// KVStore implements Store over any KV backend.
type KVStore struct {
	kv KV
}

// New wraps kv as a Store.
func New(kv KV) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Subscriptions(ctx context.Context) ([]sublib.Subscription, error) {
	var subs []sublib.Subscription
	found, err := s.load(ctx, common.SubscriptionsKey, &subs)
	if err != nil || !found {
		return []sublib.Subscription{}, err
	}
	if subs == nil {
		subs = []sublib.Subscription{}
	}
	return subs, nil
}

func (s *KVStore) SaveSubscriptions(ctx context.Context, subs []sublib.Subscription) error {
	if subs == nil {
		subs = []sublib.Subscription{}
	}
	return s.save(ctx, common.SubscriptionsKey, subs)
}

func (s *KVStore) Config(ctx context.Context) (Config, error) {
	var cfg Config
	if _, err := s.load(ctx, common.ConfigKey, &cfg); err != nil {
		return Config{LeadDays: common.DefaultLeadDays}, err
	}
	return cfg.WithDefaults(), nil
}

func (s *KVStore) SaveConfig(ctx context.Context, cfg Config) error {
	return s.save(ctx, common.ConfigKey, cfg)
}

func (s *KVStore) Close() error {
	return s.kv.Close()
}

func (s *KVStore) load(ctx context.Context, key string, v any) (bool, error) {
	b, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found || len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

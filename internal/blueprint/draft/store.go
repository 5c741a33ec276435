// Package draft persists in-progress wizard state in Redis so a session can
// resume after a reload. Drafts are best-effort: storage failures degrade to
// a no-op and are never surfaced to the wizard.
package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

const (
	// KeyPrefix namespaces draft keys: bp:draft:{owner_key}
	KeyPrefix = "bp:draft:"
	// DefaultTTL bounds how long an abandoned draft survives.
	DefaultTTL = 7 * 24 * time.Hour
)

// Store is a last-write-wins key-value store for wizard drafts.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps a Redis client. A nil client yields a store that degrades
// every operation to a no-op.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: DefaultTTL}
}

// NewStoreTTL wraps a Redis client with a custom draft TTL.
func NewStoreTTL(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(ownerKey string) string { return KeyPrefix + ownerKey }

// Save serializes and stores the draft. Idempotent, last write wins.
// Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, ownerKey string, d domain.WizardDraft) {
	if s.client == nil {
		return
	}
	logger := logging.NewLogger(ctx)
	data, err := json.Marshal(d)
	if err != nil {
		logger.LogWarnf("draft_save", "marshal draft for %s: %v", ownerKey, err)
		return
	}
	if err := s.client.Set(ctx, s.key(ownerKey), data, s.ttl).Err(); err != nil {
		logger.LogWarnf("draft_save", "store draft for %s: %v", ownerKey, err)
	}
}

// Load returns the stored draft, or ok=false when absent or unavailable.
func (s *Store) Load(ctx context.Context, ownerKey string) (domain.WizardDraft, bool) {
	var d domain.WizardDraft
	if s.client == nil {
		return d, false
	}
	data, err := s.client.Get(ctx, s.key(ownerKey)).Result()
	if err == redis.Nil {
		return d, false
	}
	if err != nil {
		logging.NewLogger(ctx).LogWarnf("draft_load", "load draft for %s: %v", ownerKey, err)
		return d, false
	}
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		logging.NewLogger(ctx).LogWarnf("draft_load", "decode draft for %s: %v", ownerKey, err)
		return domain.WizardDraft{}, false
	}
	return d, true
}

// Clear removes the stored draft. Failures are logged and swallowed.
func (s *Store) Clear(ctx context.Context, ownerKey string) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, s.key(ownerKey)).Err(); err != nil {
		logging.NewLogger(ctx).LogWarnf("draft_clear", "clear draft for %s: %v", ownerKey, err)
	}
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// PendingSetupStore holds the first-login handoff between the callback and
// the set-password page. Records expire on their own at ExpiresAt.
// Key format: pending_setup:<session_id>
type PendingSetupStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewPendingSetupStore(client *redis.Client) *PendingSetupStore {
	return &PendingSetupStore{client: client, now: time.Now}
}

var _ ports.PendingSetupStore = (*PendingSetupStore)(nil)

// Save writes the record with a TTL of ExpiresAt minus now. A record that is
// already expired is not written.
func (p *PendingSetupStore) Save(ctx context.Context, rec domain.PendingSetup) error {
	ttl := rec.ExpiresAt.Sub(p.now())
	if rec.ExpiresAt.IsZero() || ttl <= 0 {
		return fmt.Errorf("pending setup: record for %s has no remaining lifetime", rec.SessionID)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("pending setup encode: %w", err)
	}
	if err := p.client.Set(ctx, p.key(rec.SessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("pending setup save: %w", err)
	}
	return nil
}

func (p *PendingSetupStore) Get(ctx context.Context, sessionID string) (*domain.PendingSetup, bool, error) {
	raw, err := p.client.Get(ctx, p.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pending setup get: %w", err)
	}
	var rec domain.PendingSetup
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("pending setup decode: %w", err)
	}
	return &rec, true, nil
}

func (p *PendingSetupStore) Delete(ctx context.Context, sessionID string) error {
	return p.client.Del(ctx, p.key(sessionID)).Err()
}

func (p *PendingSetupStore) key(sessionID string) string {
	return fmt.Sprintf("pending_setup:%s", sessionID)
}

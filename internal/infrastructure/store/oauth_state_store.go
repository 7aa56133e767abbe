package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// OAuthStateStore keeps in-flight OAuth states in Redis under their own TTL.
type OAuthStateStore struct {
	rdb *redis.Client
}

var _ contract.IOAuthStateStore = (*OAuthStateStore)(nil)

func NewOAuthStateStore(rdb *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{rdb: rdb}
}

func oauthStateKey(state string) string { return fmt.Sprintf("oauth:state:%s", state) }

func (s *OAuthStateStore) Save(ctx context.Context, state string, value entity.OAuthState, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, oauthStateKey(state), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	if !ok {
		return apperror.Conflict("oauth state already in use")
	}
	return nil
}

// Consume reads and deletes the state in one round trip.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (*entity.OAuthState, error) {
	b, err := s.rdb.GetDel(ctx, oauthStateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	var value entity.OAuthState
	if err := json.Unmarshal(b, &value); err != nil {
		return nil, apperror.ErrNotFound
	}
	return &value, nil
}

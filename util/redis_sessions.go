package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func revokedKey(tokenID string) string { return fmt.Sprintf("revoked_token:%s", tokenID) }
func userTokensKey(userID uint) string { return fmt.Sprintf("user_tokens:%d", userID) }

// TrackUserToken adds the token id to the per-user set so that every token
// of a user can be revoked at once (password change, deactivation).
func TrackUserToken(ctx context.Context, rdb *redis.Client, userID uint, tokenID string, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	key := userTokensKey(userID)
	pipe := rdb.TxPipeline()
	pipe.SAdd(ctx, key, tokenID)
	// the set lives as long as the newest token
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeToken marks a token id as revoked until its natural expiry.
func RevokeToken(ctx context.Context, rdb *redis.Client, userID uint, tokenID string, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	pipe := rdb.TxPipeline()
	pipe.Set(ctx, revokedKey(tokenID), "1", ttl)
	pipe.SRem(ctx, userTokensKey(userID), tokenID)
	_, err := pipe.Exec(ctx)
	return err
}

// IsTokenRevoked reports whether tokenID has been revoked. A nil client
// always answers false.
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, tokenID string) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	_, err := rdb.Get(ctx, revokedKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RevokeUserTokens revokes every tracked token of userID for ttl.
func RevokeUserTokens(ctx context.Context, rdb *redis.Client, userID uint, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	key := userTokensKey(userID)
	members, err := rdb.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := rdb.TxPipeline()
	for _, id := range members {
		pipe.Set(ctx, revokedKey(id), "1", ttl)
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

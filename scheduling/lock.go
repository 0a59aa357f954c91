package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockBusy = errors.New("another booking for this dentist and date is in progress")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker serialises bookings of one dentist-day across processes. A Locker
// without a Redis client grants every request immediately.
type Locker struct {
	rdb      *redis.Client
	ttl      time.Duration
	retry    time.Duration
	attempts int
	newToken func() string
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{
		rdb:      rdb,
		ttl:      5 * time.Second,
		retry:    50 * time.Millisecond,
		attempts: 40,
		newToken: uuid.NewString,
	}
}

func lockKey(dentistID uint, date string) string {
	return fmt.Sprintf("slot_lock:%d:%s", dentistID, date)
}

// Acquire blocks until the dentist-day lock is held, the context ends or
// the attempts run out. The returned func releases the lock.
func (l *Locker) Acquire(ctx context.Context, dentistID uint, date string) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}

	key := lockKey(dentistID, date)
	token := l.newToken()

	for i := 0; i < l.attempts; i++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			// the transactional re-check still guards the slot
			util.Logger().Warn().Err(err).Str("key", key).Msg("slot lock unavailable, booking without it")
			return func() {}, nil
		}
		if ok {
			return func() {
				// a fresh context so release still runs after request cancellation
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = l.rdb.Eval(rctx, releaseScript, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
	return nil, ErrLockBusy
}

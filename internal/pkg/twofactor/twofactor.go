// Package twofactor 管理登录两步验证的一次性验证码。
package twofactor

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	codeKeyPrefix    = "notemeet:2fa:code:"
	attemptKeyPrefix = "notemeet:2fa:attempts:"
	codeTTL          = 10 * time.Minute
	maxAttempts      = 5
	codeDigits       = 6
)

var ErrInvalidCode = errors.New("invalid or expired two-factor code")

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: codeTTL}
}

// Issue 为用户生成新验证码，覆盖旧码并重置尝试次数
func (s *Store) Issue(ctx context.Context, userID int64) (string, error) {
	code, err := randomDigits(codeDigits)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(userID), code, s.ttl)
		pipe.Del(ctx, attemptKey(userID))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Verify 校验验证码，成功后删除；连续失败达到上限后验证码作废
func (s *Store) Verify(ctx context.Context, userID int64, code string) error {
	stored, err := s.rdb.Get(ctx, codeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("get code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		if err := s.rdb.Del(ctx, codeKey(userID), attemptKey(userID)).Err(); err != nil {
			return fmt.Errorf("consume code: %w", err)
		}
		return nil
	}

	attempts, err := s.rdb.Incr(ctx, attemptKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	s.rdb.Expire(ctx, attemptKey(userID), s.ttl)
	if attempts >= maxAttempts {
		s.rdb.Del(ctx, codeKey(userID), attemptKey(userID))
	}
	return ErrInvalidCode
}

func codeKey(userID int64) string {
	return fmt.Sprintf("%s%d", codeKeyPrefix, userID)
}

func attemptKey(userID int64) string {
	return fmt.Sprintf("%s%d", attemptKeyPrefix, userID)
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ecosol/pkg/utils"
)

const (
	refreshPrefix       = "refresh:"
	refreshSetPrefix    = "refresh:account:"
	passwordResetPrefix = "pwreset:"
)

// TokenStore 不透明 token 存在 Redis：refresh token 与密码重置 token
type TokenStore struct {
	rdb        *redis.Client
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenStore(rdb *redis.Client, refreshTTL, resetTTL time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, refreshTTL: refreshTTL, resetTTL: resetTTL}
}

func (s *TokenStore) IssueRefresh(ctx context.Context, accountID string) (string, error) {
	tok := utils.NewToken()
	set := refreshSetPrefix + accountID
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, refreshPrefix+tok, accountID, s.refreshTTL)
		p.SAdd(ctx, set, tok)
		p.Expire(ctx, set, s.refreshTTL)
		return nil
	})
	if err != nil {
		return "", err
	}
	return tok, nil
}

// ConsumeRefresh 单次使用：GETDEL，未知 token 返回 ""
func (s *TokenStore) ConsumeRefresh(ctx context.Context, tok string) (string, error) {
	id, err := s.rdb.GetDel(ctx, refreshPrefix+tok).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	_ = s.rdb.SRem(ctx, refreshSetPrefix+id, tok).Err()
	return id, nil
}

// RevokeAll 重置密码后让该账号所有会话失效
func (s *TokenStore) RevokeAll(ctx context.Context, accountID string) error {
	set := refreshSetPrefix + accountID
	toks, err := s.rdb.SMembers(ctx, set).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(toks)+1)
	for _, t := range toks {
		keys = append(keys, refreshPrefix+t)
	}
	keys = append(keys, set)
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *TokenStore) IssueReset(ctx context.Context, accountID string) (string, error) {
	tok := utils.NewToken()
	if err := s.rdb.Set(ctx, passwordResetPrefix+tok, accountID, s.resetTTL).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *TokenStore) ConsumeReset(ctx context.Context, tok string) (string, error) {
	id, err := s.rdb.GetDel(ctx, passwordResetPrefix+tok).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"starmatch/internal/cache"
	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/util"

	"go.uber.org/zap"
)

// ErrHandoffNotFound is returned when a handoff token is unknown, expired or
// already consumed.
var ErrHandoffNotFound = errors.New("handoff not found in cache")

// HandoffStore carries immutable transfer records between screens. A record
// is stored under a fresh token and can be taken exactly once.
type HandoffStore interface {
	Put(ctx context.Context, h domain.Handoff) (string, error)
	Take(ctx context.Context, token string) (domain.Handoff, error)
}

type handoffStoreImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewHandoffStore creates a HandoffStore over the given cache.
func NewHandoffStore(c domain.Cache, ttl time.Duration) HandoffStore {
	if c == nil {
		logger.Get().Warn("HandoffStore initialized with nil cache. Handoffs will be dropped.")
		return noopHandoffStore{}
	}
	return &handoffStoreImpl{cache: c, ttl: ttl}
}

func (s *handoffStoreImpl) generateKey(token string) string {
	return cache.GenerateCacheKey("nav", "handoff", token)
}

// Put stores h and returns the token designating it.
func (s *handoffStoreImpl) Put(ctx context.Context, h domain.Handoff) (string, error) {
	token := util.NewULID()
	key := s.generateKey(token)

	data, err := json.Marshal(h)
	if err != nil {
		return "", domain.NewInternalError("failed to marshal handoff", err)
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to store handoff", zap.Error(err), zap.String("key", key))
		return "", domain.NewInternalError(fmt.Sprintf("failed to set handoff for key %s", key), err)
	}
	logger.Get().Debug("Stored handoff", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return token, nil
}

// Take consumes the record stored under token.
func (s *handoffStoreImpl) Take(ctx context.Context, token string) (domain.Handoff, error) {
	if !util.IsULID(token) {
		return domain.Handoff{}, ErrHandoffNotFound
	}
	key := s.generateKey(token)

	data, err := s.cache.GetDel(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Debug("Handoff cache miss", zap.String("key", key))
			return domain.Handoff{}, ErrHandoffNotFound
		}
		logger.Get().Error("Failed to take handoff", zap.Error(err), zap.String("key", key))
		return domain.Handoff{}, domain.NewInternalError(fmt.Sprintf("failed to get handoff for key %s", key), err)
	}

	var h domain.Handoff
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		logger.Get().Error("Failed to unmarshal handoff", zap.Error(err), zap.String("key", key))
		return domain.Handoff{}, domain.NewInternalError(fmt.Sprintf("failed to unmarshal handoff for key %s", key), err)
	}
	return h, nil
}

type noopHandoffStore struct{}

func (noopHandoffStore) Put(context.Context, domain.Handoff) (string, error) {
	return "", nil
}

func (noopHandoffStore) Take(context.Context, string) (domain.Handoff, error) {
	return domain.Handoff{}, ErrHandoffNotFound
}

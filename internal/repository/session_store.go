package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/pkg/cache"
	applogger "GanttGen/pkg/logger"
)

const sessionKeyPrefix = "session:"

// CacheSessionStore implements SessionStore on top of a TTL cache.
// Reads extend the TTL so an active chart keeps its research.
type CacheSessionStore struct {
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCacheSessionStore(c cache.Service, ttl time.Duration, l *applogger.Logger) *CacheSessionStore {
	return &CacheSessionStore{cache: c, ttl: ttl, l: l}
}

func (s *CacheSessionStore) Save(ctx context.Context, sess *models.ResearchSession) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("save session: empty id")
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), b, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *CacheSessionStore) Get(ctx context.Context, id string) (*models.ResearchSession, error) {
	key := sessionKey(id)

	var b []byte
	if err := s.cache.Get(ctx, key, &b); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var sess models.ResearchSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	if _, err := s.cache.Expire(ctx, key, s.ttl); err != nil {
		s.l.Warn("session ttl refresh failed",
			applogger.String("session_id", id),
			applogger.Error(err))
	}
	return &sess, nil
}

func (s *CacheSessionStore) Delete(ctx context.Context, id string) error {
	key := sessionKey(id)
	ok, err := s.cache.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if !ok {
		return models.ErrSessionNotFound
	}
	return s.cache.Delete(ctx, key)
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

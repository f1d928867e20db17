package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/technofatty/technofatty/internal/cache"
)

const healthCacheKey = "__healthcheck__"

// healthService is the concrete implementation of HealthService
type healthService struct {
	db    HealthChecker
	cache cache.Store
}

func newHealthService(db HealthChecker, store cache.Store) *healthService {
	return &healthService{db: db, cache: store}
}

// CheckDB pings the database
func (s *healthService) CheckDB(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database not configured")
	}
	return s.db.HealthCheck(ctx)
}

// CheckCache round-trips a value through the cache
func (s *healthService) CheckCache(ctx context.Context) error {
	if s.cache == nil {
		return errors.New("cache not configured")
	}
	if err := s.cache.Set(ctx, healthCacheKey, "ok", 10*time.Second); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	v, err := s.cache.Get(ctx, healthCacheKey)
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if v != "ok" {
		return fmt.Errorf("cache returned %q", v)
	}
	if err := s.cache.Delete(ctx, healthCacheKey); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

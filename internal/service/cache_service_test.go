package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academy-retake-api/pkg/errors"
)

type stubCacheRepo struct {
	values  map[string]interface{}
	lastTTL time.Duration
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if _, ok := s.values[key]; !ok {
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]interface{})
	}
	s.values[key] = value
	s.lastTTL = ttl
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	return nil
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, nil, true)

	var dest string
	hit, err := svc.Get(context.Background(), "missing", &dest)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheServiceSetAppliesDefaultTTL(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "key", "value", 0))
	require.Equal(t, time.Minute, repo.lastTTL)

	var dest string
	hit, err := svc.Get(context.Background(), "key", &dest)
	require.NoError(t, err)
	require.True(t, hit)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.False(t, svc.Enabled())
	require.NoError(t, svc.Set(context.Background(), "key", "value", time.Minute))
	require.Empty(t, repo.values)

	var nilSvc *CacheService
	require.False(t, nilSvc.Enabled())
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Invalidate(context.Background(), "status_labels:*"))
	require.Equal(t, []string{"status_labels:*"}, repo.deleted)
}

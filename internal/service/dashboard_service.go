package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campushare/campushare-api/internal/models"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
)

const dashboardStatsKey = "campushare:dashboard:stats"

type dashboardStore interface {
	StatusCounts(ctx context.Context) (*models.DashboardStats, error)
	TopDownloaded(ctx context.Context, limit int) ([]models.TopResource, error)
}

// DashboardService serves portal-wide counters to lecturers. Aggregates are
// cached in Redis; moderation and download paths never read from this cache.
type DashboardService struct {
	repo     dashboardStore
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	topLimit int
}

// NewDashboardService constructs the service. The cache client may be nil,
// in which case every call aggregates from the database.
func NewDashboardService(repo dashboardStore, cache *redis.Client, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &DashboardService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
		topLimit: 10,
	}
}

// Stats returns the moderation and download counters for lecturers.
func (s *DashboardService) Stats(ctx context.Context, actor *models.JWTClaims) (*models.DashboardStats, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "dashboard is restricted to lecturers")
	}

	if s.cache != nil {
		if cached := s.fromCache(ctx); cached != nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	stats, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate resource counts")
	}
	top, err := s.repo.TopDownloaded(ctx, s.topLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank downloads")
	}
	stats.TopDownloads = top
	stats.GeneratedAt = time.Now().UTC()

	s.toCache(ctx, stats)
	return stats, nil
}

// Invalidate drops the cached aggregate. Called after reviews and uploads so
// the next read reflects the new counts.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardStatsKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *DashboardService) fromCache(ctx context.Context) *models.DashboardStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardStatsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats models.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("dashboard cache entry corrupt", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *DashboardService) toCache(ctx context.Context, stats *models.DashboardStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardStatsKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

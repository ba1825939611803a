package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
)

type dashboardStoreStub struct {
	stats     *models.DashboardStats
	top       []models.TopResource
	statCalls int
}

func (s *dashboardStoreStub) StatusCounts(ctx context.Context) (*models.DashboardStats, error) {
	s.statCalls++
	clone := *s.stats
	return &clone, nil
}

func (s *dashboardStoreStub) TopDownloaded(ctx context.Context, limit int) ([]models.TopResource, error) {
	return s.top, nil
}

func TestDashboardServiceStats(t *testing.T) {
	store := &dashboardStoreStub{
		stats: &models.DashboardStats{PendingCount: 2, ApprovedCount: 5, RejectedCount: 1, TotalDownloads: 40},
		top: []models.TopResource{
			{ID: "res-1", Title: "Graph Algorithms", DownloadCount: 20},
		},
	}
	svc := NewDashboardService(store, nil, time.Minute, nil, nil)

	stats, err := svc.Stats(context.Background(), lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.Len(t, stats.TopDownloads, 1)
	require.False(t, stats.GeneratedAt.IsZero())

	// Without a cache every call aggregates again.
	_, err = svc.Stats(context.Background(), lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.Equal(t, 2, store.statCalls)
}

func TestDashboardServiceStatsRequiresLecturer(t *testing.T) {
	store := &dashboardStoreStub{stats: &models.DashboardStats{}}
	svc := NewDashboardService(store, nil, time.Minute, nil, nil)

	_, err := svc.Stats(context.Background(), studentClaims("stud-1"))
	require.Equal(t, "FORBIDDEN", errorCode(t, err))
	require.Zero(t, store.statCalls)
}

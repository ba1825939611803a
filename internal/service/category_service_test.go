package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campushare/campushare-api/internal/models"
)

type categoryStoreStub struct {
	categories map[string]*models.Category
	createErr  error
	removed    int64
}

func newCategoryStoreStub() *categoryStoreStub {
	return &categoryStoreStub{categories: make(map[string]*models.Category)}
}

func (s *categoryStoreStub) Create(ctx context.Context, category *models.Category) error {
	if s.createErr != nil {
		return s.createErr
	}
	category.ID = "cat-1"
	s.categories[category.ID] = category
	return nil
}

func (s *categoryStoreStub) FindByID(ctx context.Context, id string) (*models.Category, error) {
	if category, ok := s.categories[id]; ok {
		clone := *category
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *categoryStoreStub) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	result := make([]models.Category, 0, len(s.categories))
	for _, category := range s.categories {
		if activeOnly && !category.Active {
			continue
		}
		result = append(result, *category)
	}
	return result, nil
}

func (s *categoryStoreStub) Update(ctx context.Context, category *models.Category) error {
	if _, ok := s.categories[category.ID]; !ok {
		return sql.ErrNoRows
	}
	s.categories[category.ID] = category
	return nil
}

func (s *categoryStoreStub) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := s.categories[id]; !ok {
		return 0, sql.ErrNoRows
	}
	delete(s.categories, id)
	return s.removed, nil
}

func TestCategoryServiceCreate(t *testing.T) {
	store := newCategoryStoreStub()
	svc := NewCategoryService(store, &auditStub{}, nil, nil)

	category, err := svc.Create(context.Background(), models.CreateCategoryRequest{
		Name:        "  Lecture Notes  ",
		Description: "slides and notes",
	}, lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.Equal(t, "Lecture Notes", category.Name)
	require.True(t, category.Active)

	_, err = svc.Create(context.Background(), models.CreateCategoryRequest{Name: "Other"}, studentClaims("stud-1"))
	require.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestCategoryServiceCreateDuplicateName(t *testing.T) {
	store := newCategoryStoreStub()
	store.createErr = &pq.Error{Code: "23505"}
	svc := NewCategoryService(store, &auditStub{}, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateCategoryRequest{Name: "Lecture Notes"}, lecturerClaims("lect-1"))
	require.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestCategoryServiceUpdate(t *testing.T) {
	store := newCategoryStoreStub()
	store.categories["cat-1"] = &models.Category{ID: "cat-1", Name: "Notes", Active: true}
	svc := NewCategoryService(store, &auditStub{}, nil, nil)

	inactive := false
	updated, err := svc.Update(context.Background(), "cat-1", models.UpdateCategoryRequest{
		Active: &inactive,
	}, lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.False(t, updated.Active)

	_, err = svc.Update(context.Background(), "missing", models.UpdateCategoryRequest{}, lecturerClaims("lect-1"))
	require.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestCategoryServiceDeleteReportsRemovedCount(t *testing.T) {
	store := newCategoryStoreStub()
	store.categories["cat-1"] = &models.Category{ID: "cat-1", Name: "Notes", Active: true}
	store.removed = 7
	audit := &auditStub{}
	svc := NewCategoryService(store, audit, nil, nil)

	removed, err := svc.Delete(context.Background(), "cat-1", lecturerClaims("lect-1"))
	require.NoError(t, err)
	require.EqualValues(t, 7, removed)
	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionCategoryDelete, audit.entries[0].Action)

	_, err = svc.Delete(context.Background(), "cat-1", lecturerClaims("lect-1"))
	require.Equal(t, "NOT_FOUND", errorCode(t, err))

	_, err = svc.Delete(context.Background(), "cat-2", studentClaims("stud-1"))
	require.Equal(t, "FORBIDDEN", errorCode(t, err))
}

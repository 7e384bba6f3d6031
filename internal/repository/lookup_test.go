package repository

import (
	"context"
	"testing"

	"jobfinder/internal/database"
	"jobfinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.Migrate(db), "migrate sqlite")
	return db
}

func seedWorkFormats(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []models.WorkFormat{
		{Code: "remote", Name: "Remote", Active: true},
		{Code: "on-site", Name: "On-site", Active: true},
		{Code: models.OtherCode, Name: "Aaa Other", Active: true}, // name sorts first on purpose
		{Code: "hybrid", Name: "Hybrid", Active: false},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}

func TestLookupListSentinelLast(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)

	items, err := repo.List(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, items, 3) // inactive hybrid excluded
	assert.Equal(t, "on-site", items[0].Code)
	assert.Equal(t, "remote", items[1].Code)
	// Sentinel is forced last even though its name sorts first.
	assert.Equal(t, models.OtherCode, items[2].Code)
}

func TestLookupListIncludeInactive(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)

	items, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, models.OtherCode, items[3].Code)
}

func TestLookupGetByCode(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)

	item, err := repo.GetByCode(context.Background(), "remote")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Remote", item.Name)

	missing, err := repo.GetByCode(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLookupCreateValidation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewLookupRepository[models.Currency](db, models.CategoryCurrency)
	ctx := context.Background()

	tests := []struct {
		name string
		item models.Currency
		code string
	}{
		{"missing code", models.Currency{Name: "Dollar"}, models.CodeValidation},
		{"missing name", models.Currency{Code: "usd"}, models.CodeValidation},
		{"code over category limit", models.Currency{Code: "much-too-long", Name: "X"}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, &tt.item)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	require.NoError(t, repo.Create(ctx, &models.Currency{Code: "usd", Name: "US Dollar", Active: true}))

	err := repo.Create(ctx, &models.Currency{Code: "usd", Name: "Dollar again", Active: true})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestLookupSentinelWriteProtection(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)
	ctx := context.Background()

	err := repo.UpdateFields(ctx, models.OtherCode, map[string]any{"name": "Renamed"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	err = repo.Delete(ctx, models.OtherCode)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	var count int64
	db.Model(&models.WorkFormat{}).Where("code = ?", models.OtherCode).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLookupUpdateAndDelete(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)
	ctx := context.Background()

	require.NoError(t, repo.UpdateFields(ctx, "hybrid", map[string]any{"is_active": true}))
	item, err := repo.GetByCode(ctx, "hybrid")
	require.NoError(t, err)
	assert.True(t, item.Active)

	var appErr *models.AppError
	err = repo.UpdateFields(ctx, "missing", map[string]any{"name": "x"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	require.NoError(t, repo.Delete(ctx, "hybrid"))
	err = repo.Delete(ctx, "hybrid")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestLookupReorderAtomicity(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	seedWorkFormats(t, db)
	repo := NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat)
	ctx := context.Background()

	require.NoError(t, repo.Reorder(ctx, []OrderUpdate{
		{Code: "remote", Order: 5},
		{Code: "on-site", Order: 6},
	}))
	item, err := repo.GetByCode(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, 5, item.SortOrder)

	// One unknown code rolls back the entire batch.
	err = repo.Reorder(ctx, []OrderUpdate{
		{Code: "remote", Order: 99},
		{Code: "does-not-exist", Order: 1},
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	item, err = repo.GetByCode(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, 5, item.SortOrder, "partial batch must not be applied")
}

package repositories

import (
	"context"
	"testing"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/infrastructure/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database))

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))
	ctx := context.Background()

	run := &entities.OptimizeRun{
		Status:    "partial",
		Formats:   "png,webp",
		ItemCount: 2,
		Outputs: []entities.RunOutput{
			{Position: 0, PairedItem: 0, Format: "png", FileName: "a.min.png", Width: 4, Height: 3, Size: 120},
			{Position: 1, PairedItem: 0, Format: "webp", FileName: "a.min.webp", Size: 80},
			{Position: 2, PairedItem: 1, Error: "item failed"},
		},
	}
	require.NoError(t, repo.CreateRun(ctx, run))
	require.NotEqual(t, uuid.Nil, run.ID)

	got, err := repo.GetRunByID(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "partial", got.Status)
	require.Len(t, got.Outputs, 3)
	assert.Equal(t, "png", got.Outputs[0].Format)
	assert.Equal(t, int64(120), got.Outputs[0].Size)
	assert.Equal(t, "item failed", got.Outputs[2].Error)
	for _, o := range got.Outputs {
		assert.Equal(t, run.ID, o.RunID)
	}
}

func TestRunRepository_NotFound(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	_, err := repo.GetRunByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = repo.GetRunByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := &entities.OptimizeRun{Status: "completed", ItemCount: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].ItemCount)
	assert.Equal(t, 1, runs[1].ItemCount)
}

func TestRunRepository_Delete(t *testing.T) {
	database := newTestDB(t)
	repo := NewRunRepository(database)
	ctx := context.Background()

	run := &entities.OptimizeRun{Status: "completed", Outputs: []entities.RunOutput{{Format: "png"}}}
	require.NoError(t, repo.CreateRun(ctx, run))

	require.NoError(t, repo.DeleteRun(ctx, run.ID.String()))
	_, err := repo.GetRunByID(ctx, run.ID.String())
	assert.ErrorIs(t, err, ErrRunNotFound)

	var outputs int64
	require.NoError(t, database.Model(&entities.RunOutput{}).Count(&outputs).Error)
	assert.Zero(t, outputs)

	assert.ErrorIs(t, repo.DeleteRun(ctx, run.ID.String()), ErrRunNotFound)
}

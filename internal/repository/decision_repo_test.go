package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestPutOverwritesDecision(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// insert like
	err := repo.Put(ctx, 1, 2, true)
	assert.NoError(t, err)

	// overwrite with pass
	err = repo.Put(ctx, 1, 2, false)
	assert.NoError(t, err)

	var count int64
	require.NoError(t, dbase.Model(&db.Decision{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	d, found, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, d.Liked)
}

func TestGetAbsentDecision(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDecisionRepository(setupTestDB(t))

	_, found, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetLikersExcludesPassedUsers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// actors 1,2 liked recipient 99
	_ = repo.Put(ctx, 1, 99, true)
	_ = repo.Put(ctx, 2, 99, true)
	// recipient passed actor 2 → exclude
	_ = repo.Put(ctx, 99, 2, false)

	decisions, _, err := repo.GetLikers(ctx, 99, nil, 10)
	assert.NoError(t, err)
	assert.Len(t, decisions, 1)
	assert.Equal(t, uint64(1), decisions[0].ActorID)
}

func TestGetNewLikersExcludesMutual(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewDecisionRepository(dbase)

	// actor 1 liked 99, and 99 liked back → mutual
	_ = repo.Put(ctx, 1, 99, true)
	_ = repo.Put(ctx, 99, 1, true)

	// actor 2 liked 99, but not mutual
	_ = repo.Put(ctx, 2, 99, true)

	decisions, _, err := repo.GetNewLikers(ctx, 99, nil, 10)
	assert.NoError(t, err)
	assert.Len(t, decisions, 1)
	assert.Equal(t, uint64(2), decisions[0].ActorID)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDecisionRepository(setupTestDB(t))

	_ = repo.Put(ctx, 1, 2, true)
	_ = repo.Put(ctx, 2, 3, false)

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 2, 3)
	require.NoError(t, err)
	assert.False(t, liked)

	liked, err = repo.HasLiked(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}

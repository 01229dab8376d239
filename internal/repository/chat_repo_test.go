package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatUpsertIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	id1, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	id2, err := repo.Upsert(ctx, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, "1_2", id1)

	var count int64
	require.NoError(t, dbase.Model(&db.Chat{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestChatUpsertRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	id, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	first, err := repo.Get(ctx, id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = repo.Upsert(ctx, 2, 1)
	require.NoError(t, err)
	second, err := repo.Get(ctx, id)
	require.NoError(t, err)

	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestMessagesOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	id, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)

	_, err = repo.AppendMessage(ctx, id, 1, "hi")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = repo.AppendMessage(ctx, id, 2, "yo")
	require.NoError(t, err)

	msgs, err := repo.ListMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "yo", msgs[1].Text)
	assert.False(t, msgs[1].CreatedAt.Before(msgs[0].CreatedAt))
}

func TestListForUserOrdersByActivityAndEnriches(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	users := []db.User{
		{ID: 1, Email: "u1@test.com", PasswordHash: "x", FirstName: "Ana"},
		{ID: 2, Email: "u2@test.com", PasswordHash: "x", FirstName: "Bruno"},
		{ID: 3, Email: "u3@test.com", PasswordHash: "x", FirstName: "Carla"},
	}
	require.NoError(t, dbase.Create(&users).Error)

	older, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := repo.Upsert(ctx, 1, 3)
	require.NoError(t, err)

	chats, err := repo.ListForUser(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer, chats[0].Chat.PairID)
	assert.Equal(t, older, chats[1].Chat.PairID)
	assert.Equal(t, "Carla", chats[0].Counterpart.FirstName)
	assert.Equal(t, "Bruno", chats[1].Counterpart.FirstName)
}

func TestMatchUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	id1, err := repo.Upsert(ctx, 2, 1)
	require.NoError(t, err)
	id2, err := repo.Upsert(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, exists)
}

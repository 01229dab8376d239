package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/media"
	"github.com/emberapp/ember-server/internal/notify"
	"github.com/emberapp/ember-server/internal/service/match"
)

func setupService(t *testing.T) (*match.Service, *app.AppContext, *notify.Recorder) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	users := []db.User{
		{ID: 1, Email: "a@test.com", PasswordHash: "x", FirstName: "Ana", Photos: []string{"p"}, ProfileComplete: true},
		{ID: 2, Email: "b@test.com", PasswordHash: "x", FirstName: "Bia", Photos: []string{"p"}, ProfileComplete: true},
		{ID: 3, Email: "c@test.com", PasswordHash: "x", FirstName: "Caio", Photos: []string{"p"}, ProfileComplete: true},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := &notify.Recorder{}

	appCtx := app.New(cfg, dbase, redisCache, logger, recorder, media.Disabled{})
	return match.NewService(appCtx), appCtx, recorder
}

func countMatches(t *testing.T, appCtx *app.AppContext) int64 {
	t.Helper()
	var n int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&n).Error)
	return n
}

func TestRegisterLikeLoneIsNotAMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, recorder := setupService(t)

	res, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, res.MatchID)
	assert.EqualValues(t, 0, countMatches(t, appCtx))
	assert.Empty(t, recorder.Matches)
}

func TestRegisterLikeMutualCreatesOneMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, recorder := setupService(t)

	_, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)

	res, err := svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "1_2", res.MatchID)
	assert.EqualValues(t, 1, countMatches(t, appCtx))

	// both sides are notified
	assert.ElementsMatch(t, []uint64{1, 2}, recorder.Matches)

	// the chat channel is pre-created at the same canonical id
	var chat db.Chat
	require.NoError(t, appCtx.DB.First(&chat, "pair_id = ?", "1_2").Error)
}

func TestRegisterLikeRepeatIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)

	// re-swiping after the match neither duplicates nor errors
	res, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "1_2", res.MatchID)
	assert.EqualValues(t, 1, countMatches(t, appCtx))
}

func TestRegisterLikeSelfRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 1, 1)
	assert.Error(t, err)
	assert.Error(t, svc.RegisterDislike(ctx, 1, 1))
}

func TestRegisterDislikeNeverMatches(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	require.NoError(t, svc.RegisterDislike(ctx, 1, 2))

	res, err := svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.EqualValues(t, 0, countMatches(t, appCtx))
}

func TestRegisterDislikeKeepsExistingMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)

	// a later change of heart records the pass but never tears down the match
	require.NoError(t, svc.RegisterDislike(ctx, 1, 2))
	assert.EqualValues(t, 1, countMatches(t, appCtx))
}

func TestListMatchesReturnsCounterparts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 1, 3)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 3, 1)
	require.NoError(t, err)

	got, err := svc.ListMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	names := []string{got[0].Counterpart.FirstName, got[1].Counterpart.FirstName}
	assert.ElementsMatch(t, []string{"Bia", "Caio"}, names)

	got, err = svc.ListMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].Counterpart.FirstName)
}

func TestListLikedYouExcludesPassedAndReciprocated(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 3, 1)
	require.NoError(t, err)

	likers, next, err := svc.ListLikedYou(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likers, 2)

	// reciprocating 2's like removes it from the "new" feed only
	_, err = svc.RegisterLike(ctx, 1, 2)
	require.NoError(t, err)

	likers, _, err = svc.ListLikedYou(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Len(t, likers, 2)

	likers, _, err = svc.ListNewLikedYou(ctx, 1, nil, 10)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.EqualValues(t, 3, likers[0].UserID)

	// passing on 3 removes it from both feeds
	require.NoError(t, svc.RegisterDislike(ctx, 1, 3))

	likers, _, err = svc.ListLikedYou(ctx, 1, nil, 10)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.EqualValues(t, 2, likers[0].UserID)
}

func TestCountLikedYouPrefersCache(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	key := appCtx.RedisCache.KeyForLikeCount(1)
	require.NoError(t, appCtx.RedisCache.Set(ctx, key, "42", time.Hour))

	count, err := svc.CountLikedYou(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 42, count)
}

func TestCountLikedYouFallsBackToDBAndPrimesCache(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 3, 1)
	require.NoError(t, err)

	// swipes keep the counter warm; drop it to force the DB path
	key := appCtx.RedisCache.KeyForLikeCount(1)
	require.NoError(t, appCtx.RedisCache.Del(ctx, key))

	count, err := svc.CountLikedYou(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	cached, err := appCtx.RedisCache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(2), cached)
}

func TestSwipesKeepCachedCounterInStep(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)

	_, err := svc.RegisterLike(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.RegisterLike(ctx, 3, 1)
	require.NoError(t, err)
	require.NoError(t, svc.RegisterDislike(ctx, 3, 1))

	key := appCtx.RedisCache.KeyForLikeCount(1)
	cached, err := appCtx.RedisCache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "1", cached)
}

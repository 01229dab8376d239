package profile_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/auth"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/media"
	"github.com/emberapp/ember-server/internal/notify"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/service/profile"
)

func setupService(t *testing.T) (*profile.Service, *app.AppContext) {
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(cfg, dbase, redisCache, logger, notify.Noop{}, media.Disabled{})
	return profile.NewService(appCtx), appCtx
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	session, err := svc.Signup(ctx, "  Ana@Test.com ", "hunter42")
	require.NoError(t, err)
	assert.NotZero(t, session.UserID)
	assert.NotEmpty(t, session.Token)

	// the token is minted for the new account
	userID, err := auth.ParseToken(session.Token, appCtx.Cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)

	// email is stored normalized, so login with different casing works
	login, err := svc.Login(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, login.UserID)

	_, err = svc.Login(ctx, "ana@test.com", "wrong-password")
	assert.Error(t, err)
	_, err = svc.Login(ctx, "nobody@test.com", "hunter42")
	assert.Error(t, err)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Signup(ctx, "not-an-email", "hunter42")
	assert.Error(t, err)
	_, err = svc.Signup(ctx, "short@test.com", "tiny")
	assert.Error(t, err)

	_, err = svc.Signup(ctx, "dup@test.com", "hunter42")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "dup@test.com", "hunter42")
	assert.Error(t, err)
}

func TestSaveDerivesCompleteness(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	session, err := svc.Signup(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)

	// a save without photos leaves the profile incomplete
	err = svc.Save(ctx, session.UserID, repository.ProfileFields{
		FirstName:        "Ana",
		BirthDate:        "15/03/1995",
		GenderPreference: db.PreferenceBoth,
		Interests:        []string{db.AllInterests[0]},
	})
	require.NoError(t, err)

	u, err := svc.Get(ctx, session.UserID)
	require.NoError(t, err)
	assert.False(t, u.ProfileComplete)
	assert.Equal(t, "Ana", u.FirstName)

	err = svc.Save(ctx, session.UserID, repository.ProfileFields{
		FirstName:        "Ana",
		BirthDate:        "15/03/1995",
		GenderPreference: db.PreferenceBoth,
		Photos:           []string{"https://cdn.test/p1.jpg"},
	})
	require.NoError(t, err)

	u, err = svc.Get(ctx, session.UserID)
	require.NoError(t, err)
	assert.True(t, u.ProfileComplete)
	assert.Equal(t, []string{"https://cdn.test/p1.jpg"}, u.Photos)
}

func TestSaveRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	session, err := svc.Signup(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)

	err = svc.Save(ctx, session.UserID, repository.ProfileFields{GenderPreference: "aliens"})
	assert.Error(t, err)

	err = svc.Save(ctx, session.UserID, repository.ProfileFields{Interests: []string{"underwater basket weaving"}})
	assert.Error(t, err)
}

func TestUpdateLocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	session, err := svc.Signup(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLocation(ctx, session.UserID, -23.55, -46.63))

	u, err := svc.Get(ctx, session.UserID)
	require.NoError(t, err)
	require.True(t, u.HasLocation())
	assert.InDelta(t, -23.55, *u.Latitude, 0.0001)
	assert.InDelta(t, -46.63, *u.Longitude, 0.0001)
	require.NotNil(t, u.LocationUpdatedAt)

	assert.Error(t, svc.UpdateLocation(ctx, session.UserID, 91, 0))
	assert.Error(t, svc.UpdateLocation(ctx, session.UserID, 0, -181))
}

func TestRegisterPushSubscription(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	session, err := svc.Signup(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)

	assert.Error(t, svc.RegisterPushSubscription(ctx, session.UserID, "   "))

	payload := `{"endpoint":"https://push.test/x","keys":{"p256dh":"k","auth":"a"}}`
	require.NoError(t, svc.RegisterPushSubscription(ctx, session.UserID, payload))

	u, err := svc.Get(ctx, session.UserID)
	require.NoError(t, err)
	require.NotNil(t, u.PushSubscription)
	assert.Equal(t, payload, *u.PushSubscription)
}

func TestUploadPhotoWithoutMediaHost(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	session, err := svc.Signup(ctx, "ana@test.com", "hunter42")
	require.NoError(t, err)

	_, err = svc.UploadPhoto(ctx, session.UserID, nil, "p1.jpg")
	assert.Error(t, err)
}

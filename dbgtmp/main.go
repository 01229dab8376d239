package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/media"
	"github.com/emberapp/ember-server/internal/notify"
	"github.com/emberapp/ember-server/internal/service/chat"
)

func main() {
	dbase, err := gorm.Open(sqlite.Open("file:dbg?mode=memory&cache=shared"), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	if err != nil { panic(err) }
	if err := db.Migrate(dbase); err != nil { panic(err) }
	users := []db.User{
		{ID: 1, Email: "a@test.com", PasswordHash: "x", FirstName: "Ana", Photos: []string{"p"}, ProfileComplete: true},
		{ID: 2, Email: "b@test.com", PasswordHash: "x", FirstName: "Bia", Photos: []string{"p"}, ProfileComplete: true},
	}
	if err := dbase.Create(&users).Error; err != nil { panic(err) }

	mr, err := miniredis.Run()
	if err != nil { panic(err) }
	defer mr.Close()

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	appCtx := app.New(cfg, dbase, redisCache, logger, &notify.Recorder{}, media.Disabled{})
	svc := chat.NewService(appCtx)

	ctx := context.Background()

	raw := redisCache.Subscribe(ctx, cache.ChatTopic("1_2"))
	go func() {
		for m := range raw.Channel() {
			fmt.Println("RAW got on", m.Channel, "payload", m.Payload)
		}
	}()

	chatID, err := svc.GetOrCreate(ctx, 1, 2)
	if err != nil { panic(err) }
	if err := svc.Send(ctx, chatID, 1, "first"); err != nil { panic(err) }

	raw2 := redisCache.Subscribe(ctx, cache.ChatTopic("1_2"))
	go func() {
		for m := range raw2.Channel() {
			fmt.Println("RAW2 got on", m.Channel, "payload", m.Payload)
		}
	}()

	sub, err := svc.Subscribe(ctx, chatID)
	if err != nil { panic(err) }
	defer sub.Stop()

	deadline := time.After(3 * time.Second)
	got := 0
	for {
		select {
		case msgs, ok := <-sub.C:
			if !ok { fmt.Println("closed"); return }
			fmt.Println("snapshot len:", len(msgs))
			got++
			if got == 1 {
				if err := svc.Send(ctx, chatID, 2, "second"); err != nil { panic(err) }
				fmt.Println("sent second")
			}
			if len(msgs) == 2 { fmt.Println("SUCCESS"); return }
		case <-deadline:
			fmt.Println("TIMEOUT")
			return
		}
	}
}

package main

import (
	"context"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/logger"
	"github.com/emberapp/ember-server/internal/media"
	"github.com/emberapp/ember-server/internal/notify"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/server"
	"github.com/emberapp/ember-server/internal/service/chat"
	"github.com/emberapp/ember-server/internal/service/discovery"
	"github.com/emberapp/ember-server/internal/service/match"
	"github.com/emberapp/ember-server/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Push dispatcher: web push when VAPID keys exist, noop otherwise
	var dispatcher notify.Dispatcher = notify.Noop{}
	if cfg.Push.VAPIDPrivateKey != "" && cfg.Push.VAPIDPublicKey != "" {
		dispatcher = notify.NewWebPush(
			repository.NewProfileRepository(database),
			repository.NewChatRepository(database),
			log,
			cfg.Push.Subscriber,
			cfg.Push.VAPIDPublicKey,
			cfg.Push.VAPIDPrivateKey,
		)
	} else {
		log.Warn("VAPID keys not set, push notifications disabled")
	}

	// Media uploader: cloudinary when configured
	var uploader media.Uploader = media.Disabled{}
	if cfg.Media.CloudinaryURL != "" {
		up, err := media.NewCloudinaryUploader(cfg.Media.CloudinaryURL, cfg.Media.Folder)
		if err != nil {
			log.Error("failed to init cloudinary", "err", err)
			return
		}
		uploader = up
	} else {
		log.Warn("CLOUDINARY_URL not set, photo uploads disabled")
	}

	appCtx := app.New(cfg, database, redisCache, log, dispatcher, uploader)

	registrars := []server.Registrar{
		profile.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

package app

import (
	"log/slog"

	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/media"
	"github.com/emberapp/ember-server/internal/notify"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, push dispatcher,
// media uploader). Components receive it at construction; nothing reaches
// for globals.
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Notifier   notify.Dispatcher
	Uploader   media.Uploader
}

// New creates a new AppContext.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, n notify.Dispatcher, up media.Uploader) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Notifier:   n,
		Uploader:   up,
	}
}

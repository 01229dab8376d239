package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/config"
)

// StartHTTPServer boots the API and mounts all provided feature registrars.
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := router.Group("/api")
	authed := router.Group("/api")
	authed.Use(AuthRequired(cfg.Auth.JWTSecret))

	for _, r := range registrars {
		r.Register(public, authed)
	}

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return router.Run(addr)
}

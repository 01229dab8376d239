package discovery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the discovery endpoint into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(public, authed *gin.RouterGroup) {
	svc := NewService(r.appCtx)
	authed.GET("/discover", discoverHandler(svc))
}

func discoverHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID := server.UserID(c)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		includeSeen := c.Query("includeSeen") == "true"
		maxDistance, _ := strconv.ParseFloat(c.DefaultQuery("maxDistanceKm", "0"), 64)

		candidates := svc.NextCandidates(c.Request.Context(), viewerID, limit, includeSeen, maxDistance)

		out := make([]gin.H, 0, len(candidates))
		for i := range candidates {
			entry := server.ProfileJSON(&candidates[i].Profile)
			if candidates[i].DistanceKm != nil {
				entry["distanceKm"] = *candidates[i].DistanceKm
			}
			out = append(out, entry)
		}
		c.JSON(http.StatusOK, gin.H{"profiles": out})
	}
}

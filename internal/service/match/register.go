package match

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the swipe/match/liked-you endpoints into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(public, authed *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	authed.POST("/swipes", swipeHandler(svc))
	authed.GET("/matches", matchesHandler(svc))
	authed.GET("/likes", likersHandler(svc, false))
	authed.GET("/likes/new", likersHandler(svc, true))
	authed.GET("/likes/count", countHandler(svc))
}

type swipeRequest struct {
	ToUserID uint64 `json:"toUserId" binding:"required"`
	Liked    *bool  `json:"liked" binding:"required"`
}

func swipeHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req swipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fromID := server.UserID(c)

		if !*req.Liked {
			if err := svc.RegisterDislike(c.Request.Context(), fromID, req.ToUserID); err != nil {
				server.AbortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"matched": false})
			return
		}

		res, err := svc.RegisterLike(c.Request.Context(), fromID, req.ToUserID)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		resp := gin.H{"matched": res.Matched}
		if res.Matched {
			resp["matchId"] = res.MatchID
		}
		c.JSON(http.StatusOK, resp)
	}
}

func matchesHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		matches, err := svc.ListMatches(c.Request.Context(), server.UserID(c))
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		out := make([]gin.H, 0, len(matches))
		for i := range matches {
			out = append(out, gin.H{
				"id":        matches[i].Match.PairID,
				"createdAt": matches[i].Match.CreatedAt.UnixMilli(),
				"other":     server.ProfileJSON(&matches[i].Counterpart),
			})
		}
		c.JSON(http.StatusOK, gin.H{"matches": out})
	}
}

func likersHandler(svc *Service, newOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		recipientID := server.UserID(c)

		var token *string
		if t := c.Query("paginationToken"); t != "" {
			token = &t
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

		var (
			likers []Liker
			next   *string
			err    error
		)
		if newOnly {
			likers, next, err = svc.ListNewLikedYou(c.Request.Context(), recipientID, token, limit)
		} else {
			likers, next, err = svc.ListLikedYou(c.Request.Context(), recipientID, token, limit)
		}
		if err != nil {
			server.AbortWithError(c, err)
			return
		}

		out := make([]gin.H, 0, len(likers))
		for _, l := range likers {
			out = append(out, gin.H{"userId": l.UserID, "unixTimestamp": l.UnixTimestamp})
		}
		resp := gin.H{"likers": out}
		if next != nil {
			resp["nextPaginationToken"] = *next
		}
		c.JSON(http.StatusOK, resp)
	}
}

func countHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.CountLikedYou(c.Request.Context(), server.UserID(c))
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

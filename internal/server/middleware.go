package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/auth"
	svcErr "github.com/emberapp/ember-server/internal/errors"
)

const ctxUserIDKey = "userID"

// AuthRequired validates the bearer token and stores the user id in the gin
// context. Websocket clients cannot set headers, so a token query parameter
// is accepted as a fallback.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be: Bearer <token>"})
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, err := auth.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthRequired.
func UserID(c *gin.Context) uint64 {
	v, _ := c.Get(ctxUserIDKey)
	id, _ := v.(uint64)
	return id
}

// AbortWithError maps a service/repo error onto an HTTP response.
func AbortWithError(c *gin.Context, err error) {
	apiErr := svcErr.Map(err)
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Message})
}

package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the chat endpoints and the websocket bridge into the HTTP
// server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(public, authed *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	authed.POST("/chats", openChatHandler(svc))
	authed.GET("/chats", listChatsHandler(svc))
	authed.GET("/chats/:id/messages", historyHandler(svc))
	authed.POST("/chats/:id/messages", sendHandler(svc))
	authed.GET("/ws", wsHandler(r.appCtx, svc))
}

type openChatRequest struct {
	OtherUserID uint64 `json:"otherUserId" binding:"required"`
}

func openChatHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chatID, err := svc.GetOrCreate(c.Request.Context(), server.UserID(c), req.OtherUserID)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"chatId": chatID})
	}
}

func listChatsHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		chats, err := svc.ListUserChats(c.Request.Context(), server.UserID(c))
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		out := make([]gin.H, 0, len(chats))
		for i := range chats {
			out = append(out, server.ChatJSON(chats[i].Chat.PairID, chats[i].Chat.UpdatedAt, &chats[i].Counterpart))
		}
		c.JSON(http.StatusOK, gin.H{"chats": out})
	}
}

func historyHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("id")
		if err := svc.requireParticipant(c.Request.Context(), chatID, server.UserID(c)); err != nil {
			server.AbortWithError(c, err)
			return
		}
		msgs, err := svc.History(c.Request.Context(), chatID)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": server.MessagesJSON(msgs)})
	}
}

type sendRequest struct {
	Text string `json:"text"`
}

func sendHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.Send(c.Request.Context(), c.Param("id"), server.UserID(c), req.Text); err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "sent"})
	}
}

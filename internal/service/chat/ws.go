package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/server"
)

// The websocket bridge exposes the live subscriptions to clients. One
// connection carries the user's inbox stream plus any chat streams the
// client opts into:
//
//	client → {"type":"subscribe_chat","chatId":"1_2"}
//	client → {"type":"unsubscribe_chat","chatId":"1_2"}
//	client → {"type":"ping"}
//	server → {"type":"chat_snapshot","chatId":"1_2","messages":[...]}
//	server → {"type":"inbox_snapshot","chats":[...]}
//
// Every snapshot is the full ordered state; clients replace, never merge.

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type wsClient struct {
	appCtx *app.AppContext
	svc    *Service
	userID uint64
	conn   *websocket.Conn
	send   chan []byte

	mu   sync.Mutex
	subs map[string]*Subscription
}

func wsHandler(appCtx *app.AppContext, svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			appCtx.Logger.Warn("websocket upgrade failed", "err", err)
			return
		}

		client := &wsClient{
			appCtx: appCtx,
			svc:    svc,
			userID: server.UserID(c),
			conn:   conn,
			send:   make(chan []byte, 64),
			subs:   make(map[string]*Subscription),
		}

		ctx, cancel := context.WithCancel(context.Background())
		go client.writePump(cancel)
		go client.runInbox(ctx)
		client.readPump(ctx, cancel)
	}
}

func (c *wsClient) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.teardown()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg struct {
			Type   string `json:"type"`
			ChatID string `json:"chatId"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe_chat":
			c.subscribeChat(ctx, msg.ChatID)
		case "unsubscribe_chat":
			c.unsubscribeChat(msg.ChatID)
		case "ping":
			c.enqueue(map[string]interface{}{"type": "pong", "time": time.Now().Unix()})
		}
	}
}

func (c *wsClient) writePump(cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// runInbox streams the user's chat list for the life of the connection.
func (c *wsClient) runInbox(ctx context.Context) {
	sub, err := c.svc.SubscribeInbox(ctx, c.userID)
	if err != nil {
		c.appCtx.Logger.Warn("inbox subscribe failed", "user_id", c.userID, "err", err)
		return
	}
	defer sub.Stop()

	for {
		select {
		case chats, ok := <-sub.C:
			if !ok {
				return
			}
			entries := make([]interface{}, 0, len(chats))
			for i := range chats {
				entries = append(entries, server.ChatJSON(chats[i].Chat.PairID, chats[i].Chat.UpdatedAt, &chats[i].Counterpart))
			}
			c.enqueue(map[string]interface{}{"type": "inbox_snapshot", "chats": entries})
		case <-ctx.Done():
			return
		}
	}
}

func (c *wsClient) subscribeChat(ctx context.Context, chatID string) {
	if chatID == "" {
		return
	}
	if err := c.svc.requireParticipant(ctx, chatID, c.userID); err != nil {
		c.enqueue(map[string]interface{}{"type": "error", "chatId": chatID, "error": "chat not found"})
		return
	}

	c.mu.Lock()
	if _, exists := c.subs[chatID]; exists {
		c.mu.Unlock()
		return
	}
	sub, err := c.svc.Subscribe(ctx, chatID)
	if err != nil {
		c.mu.Unlock()
		c.enqueue(map[string]interface{}{"type": "error", "chatId": chatID, "error": "subscribe failed"})
		return
	}
	c.subs[chatID] = sub
	c.mu.Unlock()

	go func() {
		for {
			select {
			case msgs, ok := <-sub.C:
				if !ok {
					return
				}
				c.enqueue(map[string]interface{}{
					"type":     "chat_snapshot",
					"chatId":   chatID,
					"messages": server.MessagesJSON(msgs),
				})
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *wsClient) unsubscribeChat(chatID string) {
	c.mu.Lock()
	sub, ok := c.subs[chatID]
	if ok {
		delete(c.subs, chatID)
	}
	c.mu.Unlock()
	if ok {
		sub.Stop()
	}
}

func (c *wsClient) teardown() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()
	for _, sub := range subs {
		sub.Stop()
	}
	// send is left open; writePump exits on the next failed write after the
	// connection closes, so a racing enqueue never hits a closed channel
}

func (c *wsClient) enqueue(payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
		// slow consumer; drop rather than block the event loop
	}
}

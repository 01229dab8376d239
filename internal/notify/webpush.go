package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/emberapp/ember-server/internal/repository"
)

// WebPush sends VAPID-signed web push notifications using the subscription
// stored on the target's profile. Every failure path logs and returns:
// missing subscription, malformed subscription, provider error. Nothing
// propagates to the flow that triggered the notification.
type WebPush struct {
	profiles *repository.ProfileRepository
	chats    *repository.ChatRepository
	log      *slog.Logger

	subscriber string
	publicKey  string
	privateKey string
}

func NewWebPush(
	profiles *repository.ProfileRepository,
	chats *repository.ChatRepository,
	log *slog.Logger,
	subscriber, publicKey, privateKey string,
) *WebPush {
	return &WebPush{
		profiles:   profiles,
		chats:      chats,
		log:        log,
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
	}
}

func (w *WebPush) NotifyMatch(ctx context.Context, targetUserID uint64, counterpartName string) {
	payload := map[string]interface{}{
		"title": "It's a match!",
		"body":  "You and " + counterpartName + " liked each other",
		"data":  map[string]interface{}{"type": "match"},
	}
	w.send(ctx, targetUserID, payload)
}

func (w *WebPush) NotifyMessage(ctx context.Context, chatID string, senderID uint64, text string) {
	chat, err := w.chats.Get(ctx, chatID)
	if err != nil {
		w.log.Warn("push skipped: chat lookup failed", "chat_id", chatID, "err", err)
		return
	}
	targetID := chat.UserAID
	if targetID == senderID {
		targetID = chat.UserBID
	}

	senderName := "Someone"
	if sender, err := w.profiles.Get(ctx, senderID); err == nil && sender.FirstName != "" {
		senderName = sender.FirstName
	}

	body := text
	if len(body) > 100 {
		body = body[:100] + "..."
	}

	payload := map[string]interface{}{
		"title": senderName + " sent a message",
		"body":  body,
		"data":  map[string]interface{}{"type": "message", "chatId": chatID},
	}
	w.send(ctx, targetID, payload)
}

func (w *WebPush) send(ctx context.Context, targetUserID uint64, payload map[string]interface{}) {
	target, err := w.profiles.Get(ctx, targetUserID)
	if err != nil {
		w.log.Warn("push skipped: target lookup failed", "user_id", targetUserID, "err", err)
		return
	}
	if target.PushSubscription == nil || *target.PushSubscription == "" {
		w.log.Debug("push skipped: no subscription", "user_id", targetUserID)
		return
	}

	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(*target.PushSubscription), &sub); err != nil {
		w.log.Warn("push skipped: malformed subscription", "user_id", targetUserID, "err", err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.log.Warn("push skipped: payload marshal failed", "err", err)
		return
	}

	resp, err := webpush.SendNotification(body, &sub, &webpush.Options{
		Subscriber:      w.subscriber,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             30,
	})
	if err != nil {
		w.log.Warn("push delivery failed", "user_id", targetUserID, "err", err)
		return
	}
	defer resp.Body.Close()

	// 410 means the subscription is gone for good; drop it so we stop trying.
	if resp.StatusCode == 410 {
		w.log.Info("push subscription expired, clearing", "user_id", targetUserID)
		if err := w.profiles.UpdatePushSubscription(ctx, targetUserID, ""); err != nil {
			w.log.Warn("failed to clear expired subscription", "user_id", targetUserID, "err", err)
		}
	}
}

var _ Dispatcher = (*WebPush)(nil)

// Package chat owns per-match conversations: the deterministic channel per
// pair, its append-only history, and live subscriptions to both a single
// chat and a user's inbox.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

// Service implements the chat channel operations.
type Service struct {
	appCtx      *app.AppContext
	chatRepo    *repository.ChatRepository
	profileRepo *repository.ProfileRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		chatRepo:    repository.NewChatRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// GetOrCreate locates the deterministic conversation for a pair, creating it
// on first use. GetOrCreate(a, b) and GetOrCreate(b, a) return the same id;
// repeated calls only refresh the chat's updated_at.
func (s *Service) GetOrCreate(ctx context.Context, userA, userB uint64) (string, error) {
	if userA == userB {
		return "", svcErr.InvalidArgument("cannot open a chat with yourself")
	}
	chatID, err := s.chatRepo.Upsert(ctx, userA, userB)
	if err != nil {
		return "", err
	}
	s.publishInbox(ctx, userA, userB)
	return chatID, nil
}

// Send appends a message to the chat. Whitespace-only text is a silent
// no-op: nothing is written, nothing is published. On success the chat's
// updated_at is refreshed, subscribers are woken via pub/sub, and the
// counterpart gets a best-effort push.
func (s *Service) Send(ctx context.Context, chatID string, fromID uint64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	chat, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if fromID != chat.UserAID && fromID != chat.UserBID {
		return svcErr.InvalidArgument("sender is not a participant of this chat")
	}

	msg, err := s.chatRepo.AppendMessage(ctx, chatID, fromID, text)
	if err != nil {
		return err
	}
	if err := s.chatRepo.Touch(ctx, chatID); err != nil {
		s.appCtx.Logger.Warn("chat touch failed", "chat_id", chatID, "err", err)
	}

	if err := s.appCtx.RedisCache.Publish(ctx, cache.ChatTopic(chatID), msg.ID); err != nil {
		s.appCtx.Logger.Warn("chat publish failed", "chat_id", chatID, "err", err)
	}
	s.publishInbox(ctx, chat.UserAID, chat.UserBID)

	s.appCtx.Notifier.NotifyMessage(ctx, chatID, fromID, text)
	return nil
}

// requireParticipant hides chats from non-members: outsiders get the same
// not-found as a chat that does not exist.
func (s *Service) requireParticipant(ctx context.Context, chatID string, userID uint64) error {
	chat, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if userID != chat.UserAID && userID != chat.UserBID {
		return svcErr.NotFound("chat not found")
	}
	return nil
}

// History returns the full ordered message list for a chat.
func (s *Service) History(ctx context.Context, chatID string) ([]db.Message, error) {
	return s.chatRepo.ListMessages(ctx, chatID)
}

// ListUserChats returns the user's inbox: up to 50 chats by last activity,
// each with the counterpart's profile snapshot.
func (s *Service) ListUserChats(ctx context.Context, userID uint64) ([]repository.ChatWithProfile, error) {
	return s.chatRepo.ListForUser(ctx, userID, 50)
}

// Subscription is a live view of one chat's ordered history. C receives the
// full message list once immediately and again after every change, until
// Stop is called or the context is done. Stop is mandatory and idempotent.
type Subscription struct {
	C <-chan []db.Message

	stopOnce sync.Once
	stop     func()
}

// Stop detaches the subscription. No further sends occur after it returns.
// Safe to call more than once.
func (s *Subscription) Stop() {
	s.stopOnce.Do(s.stop)
}

// Subscribe opens a live subscription on a chat. The initial snapshot is
// delivered on the returned channel before any change events. Each event
// re-reads the ordered history, so a subscriber never observes messages out
// of creation order regardless of publish interleaving.
func (s *Service) Subscribe(ctx context.Context, chatID string) (*Subscription, error) {
	if _, err := s.chatRepo.Get(ctx, chatID); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.appCtx.RedisCache.Subscribe(subCtx, cache.ChatTopic(chatID))

	out := make(chan []db.Message, 1)
	sub := &Subscription{
		C: out,
		stop: func() {
			cancel()
			_ = pubsub.Close()
		},
	}

	go func() {
		defer close(out)

		emit := func() bool {
			msgs, err := s.chatRepo.ListMessages(subCtx, chatID)
			if err != nil {
				s.appCtx.Logger.Warn("chat subscription read failed", "chat_id", chatID, "err", err)
				return true
			}
			select {
			case out <- msgs:
				return true
			case <-subCtx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		println("DBG: entering loop")
		ch := pubsub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					println("DBG: channel closed")
					return
				}
				println("DBG: event", m.Channel, m.Payload)
				if !emit() {
					return
				}
			case <-subCtx.Done():
				println("DBG: ctx done")
				return
			}
		}
	}()

	return sub, nil
}

// InboxSubscription is the live variant of ListUserChats.
type InboxSubscription struct {
	C <-chan []repository.ChatWithProfile

	stopOnce sync.Once
	stop     func()
}

func (s *InboxSubscription) Stop() {
	s.stopOnce.Do(s.stop)
}

// SubscribeInbox streams the user's chat list: once immediately, then after
// every chat whose pair includes the user changes.
func (s *Service) SubscribeInbox(ctx context.Context, userID uint64) (*InboxSubscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.appCtx.RedisCache.Subscribe(subCtx, cache.InboxTopic(userID))

	out := make(chan []repository.ChatWithProfile, 1)
	sub := &InboxSubscription{
		C: out,
		stop: func() {
			cancel()
			_ = pubsub.Close()
		},
	}

	go func() {
		defer close(out)

		emit := func() bool {
			chats, err := s.chatRepo.ListForUser(subCtx, userID, 50)
			if err != nil {
				s.appCtx.Logger.Warn("inbox subscription read failed", "user_id", userID, "err", err)
				return true
			}
			select {
			case out <- chats:
				return true
			case <-subCtx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func (s *Service) publishInbox(ctx context.Context, userA, userB uint64) {
	for _, id := range []uint64{userA, userB} {
		if err := s.appCtx.RedisCache.Publish(ctx, cache.InboxTopic(id), "changed"); err != nil {
			s.appCtx.Logger.Warn("inbox publish failed", "user_id", id, "err", err)
		}
	}
}

package repository

import (
	"context"
	"time"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/utils/pairkey"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores per-pair conversations and their append-only message
// history. A chat's key is the same canonical pair id as the match, so both
// participants locate the same channel.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// Upsert creates the chat for the pair if needed and refreshes updated_at
// either way. Repeated calls for the same pair, in either order, return the
// same id.
func (r *ChatRepository) Upsert(ctx context.Context, userA, userB uint64) (string, error) {
	key, lo, hi := pairkey.Canonical(userA, userB)
	c := db.Chat{
		PairID:    key,
		UserAID:   lo,
		UserBID:   hi,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).
		Create(&c).Error
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get returns the chat by id. gorm.ErrRecordNotFound when absent.
func (r *ChatRepository) Get(ctx context.Context, chatID string) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).Where("pair_id = ?", chatID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Touch refreshes the chat's updated_at so the inbox reorders.
func (r *ChatRepository) Touch(ctx context.Context, chatID string) error {
	return r.db.WithContext(ctx).Model(&db.Chat{}).
		Where("pair_id = ?", chatID).
		Update("updated_at", time.Now().UTC()).Error
}

// AppendMessage persists a new message with a server-assigned timestamp and
// returns it. Ordering is by created_at ascending with the id as a
// deterministic tiebreaker.
func (r *ChatRepository) AppendMessage(ctx context.Context, chatID string, fromID uint64, text string) (*db.Message, error) {
	m := db.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		FromID:    fromID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the full ordered history for a chat.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ChatWithProfile is a chat row enriched with the counterpart's profile
// snapshot at read time.
type ChatWithProfile struct {
	Chat        db.Chat
	Counterpart db.User
}

// ListForUser returns the user's chats ordered by last activity, capped at
// pageSize (the inbox shows at most the 50 most recent). Chats whose
// counterpart row is missing are skipped.
func (r *ChatRepository) ListForUser(ctx context.Context, userID uint64, pageSize int) ([]ChatWithProfile, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Limit(pageSize).
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	out := make([]ChatWithProfile, 0, len(chats))
	for _, c := range chats {
		otherID := c.UserAID
		if otherID == userID {
			otherID = c.UserBID
		}
		var other db.User
		if err := r.db.WithContext(ctx).First(&other, otherID).Error; err != nil {
			continue
		}
		out = append(out, ChatWithProfile{Chat: c, Counterpart: other})
	}
	return out, nil
}

package db

import (
	"time"
)

// Gender preference values stored on a profile.
const (
	PreferenceMen   = "men"
	PreferenceWomen = "women"
	PreferenceBoth  = "both"
)

// AllInterests is the fixed vocabulary a profile may pick interests from.
var AllInterests = []string{
	"Photography",
	"Cooking",
	"Gaming",
	"Music",
	"Travel",
	"Shopping",
	"Art & Drawing",
	"Swimming",
	"Drinks",
	"Sports",
	"Gym",
	"Movies",
	"Series",
	"Books",
}

// User holds the account and the dating profile in one row, mirroring the
// single profile document the mobile client patches field by field.
//
// ProfileComplete is derived, never written directly by callers: it is true
// iff Photos is non-empty, and recomputed on every profile save.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	FirstName        string   `gorm:"size:64"`
	LastName         string   `gorm:"size:64"`
	BirthDate        string   `gorm:"size:10"` // dd/mm/yyyy
	GenderPreference string   `gorm:"size:16"`
	Photos           []string `gorm:"serializer:json"` // first entry is the primary photo
	Interests        []string `gorm:"serializer:json"`
	About            string   `gorm:"type:text"`
	ProfileComplete  bool     `gorm:"not null;default:false;index"`

	Latitude          *float64
	Longitude         *float64
	LocationUpdatedAt *time.Time

	// Serialized web-push subscription, opaque to everything but notify.
	PushSubscription *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// HasLocation reports whether the profile carries usable coordinates.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// Decision represents an actor's like/pass decision on a recipient.
//
// Composite PK: (ActorID, RecipientID)
//   - Ensures a single row per ordered pair (overwrite guarantee).
//
// Indexes:
//   - idx_recipient_liked_updated_actor(recipient_id, liked, updated_at DESC, actor_id)
//     Optimizes "who liked me" lists with pagination.
//   - idx_actor_recipient_liked(actor_id, recipient_id, liked)
//     Optimizes O(1) lookup for reciprocal-like checks.
type Decision struct {
	ActorID     uint64    `gorm:"primaryKey;index:idx_actor_recipient_liked,priority:1"`
	RecipientID uint64    `gorm:"primaryKey;index:idx_recipient_liked_updated_actor,priority:1;index:idx_actor_recipient_liked,priority:2"`
	Liked       bool      `gorm:"not null;index:idx_recipient_liked_updated_actor,priority:2;index:idx_actor_recipient_liked,priority:3"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index:idx_recipient_liked_updated_actor,priority:3,sort:desc"`
}

// Match materializes a mutual like. PairID is the canonical order-independent
// key, so both participants converge on the same row and the insert is
// idempotent no matter which side's like lands last.
type Match struct {
	PairID    string    `gorm:"primaryKey;size:48"`
	UserAID   uint64    `gorm:"not null;index"`
	UserBID   uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Chat shares its key construction with Match: one channel per matched pair.
// UpdatedAt is refreshed on every message and drives the inbox ordering.
type Chat struct {
	PairID    string    `gorm:"primaryKey;size:48"`
	UserAID   uint64    `gorm:"not null;index"`
	UserBID   uint64    `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_chats_updated,sort:desc"`
}

// Message is append-only chat history, ordered by CreatedAt ascending.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ChatID    string    `gorm:"size:48;not null;index:idx_messages_chat_created,priority:1"`
	FromID    uint64    `gorm:"not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_messages_chat_created,priority:2"`
}
